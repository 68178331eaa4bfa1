package transcription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
)

// GoogleProvider uses Google Cloud Speech-to-Text synchronous recognition,
// which accepts clips up to one minute.
type GoogleProvider struct {
	client   *speech.Client
	language string
	timeout  time.Duration
}

// NewGoogleProvider dials the speech API. credentialsFile may be empty to
// use application default credentials.
func NewGoogleProvider(ctx context.Context, credentialsFile, language string, timeout time.Duration) (*GoogleProvider, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	c, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcp speech client: %w", err)
	}
	if language == "" {
		language = "ja-JP"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GoogleProvider{client: c, language: language, timeout: timeout}, nil
}

func (g *GoogleProvider) Name() string { return "gcp" }

func (g *GoogleProvider) Close() error {
	if g == nil || g.client == nil {
		return nil
	}
	return g.client.Close()
}

func (g *GoogleProvider) Transcribe(ctx context.Context, wav []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:          speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:   targetSampleRate,
			AudioChannelCount: targetChannels,
			LanguageCode:      g.language,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: wav},
		},
	})
	if err != nil {
		return "", fmt.Errorf("gcp recognize: %w", err)
	}

	var b strings.Builder
	for _, r := range resp.GetResults() {
		alts := r.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		b.WriteString(alts[0].GetTranscript())
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", errors.New("gcp: no transcript")
	}
	return text, nil
}
