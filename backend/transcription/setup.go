package transcription

import (
	"context"
	"errors"
	"time"

	"kotoba/backend/config"

	"go.uber.org/zap"
)

// NewFromConfig assembles the provider chain from the environment: Azure
// first when keyed, then Google when enabled, then the whisper server. The
// returned cleanup closes provider clients.
func NewFromConfig(ctx context.Context, cfg *config.Config, reader ReadingConverter, log *zap.SugaredLogger) (*Pipeline, func(), error) {
	var (
		providers []Provider
		closers   []func() error
	)

	if cfg.AzureSpeechKey != "" && cfg.AzureSpeechRegion != "" {
		az, err := NewAzureProvider(cfg.AzureSpeechKey, cfg.AzureSpeechRegion, WithAzureTimeout(cfg.ProviderTimeout))
		if err != nil {
			return nil, nil, err
		}
		providers = append(providers, az)
	} else {
		log.Warnw("azure speech not configured, skipping")
	}

	if cfg.GoogleSpeechEnabled {
		g, err := NewGoogleProvider(ctx, cfg.GoogleCredentials, "ja-JP", cfg.ProviderTimeout)
		if err != nil {
			log.Errorw("google speech unavailable", "error", err)
		} else {
			providers = append(providers, g)
			closers = append(closers, g.Close)
		}
	}

	if cfg.WhisperServerURL != "" {
		w, err := NewWhisperProvider(cfg.WhisperServerURL, "ja", cfg.ProviderTimeout)
		if err != nil {
			return nil, nil, err
		}
		providers = append(providers, w)
	}

	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warnw("closing transcription provider", "error", err)
			}
		}
	}

	if len(providers) == 0 {
		cleanup()
		return nil, nil, errors.New("no transcription provider configured")
	}

	p, err := New(providers, NewFFmpegConverter(cfg.FFmpegPath), reader,
		WithMaxAudioBytes(cfg.MaxAudioBytes),
		// conversion plus every provider in turn
		WithTimeout(cfg.ProviderTimeout*time.Duration(1+len(providers))),
		WithLogger(log.Named("transcription")),
	)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	log.Infow("transcription pipeline ready", "engines", p.Engines())
	return p, cleanup, nil
}
