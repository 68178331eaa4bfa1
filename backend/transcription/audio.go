package transcription

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	wavFormatPCM      = 1
	targetSampleRate  = 16000
	targetChannels    = 1
	targetBitsPerSamp = 16
)

// containers ffmpeg is expected to decode. Anything under audio/ is accepted
// as well.
var containers = []string{
	"video/webm",
	"application/ogg",
	"video/mp4",
	"video/quicktime",
	"video/3gpp",
}

func validateAudio(audio []byte, mimeHint string, maxBytes int) error {
	if len(audio) == 0 {
		return fmt.Errorf("%w: empty payload", ErrInvalidAudio)
	}
	if maxBytes > 0 && len(audio) > maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrInvalidAudio, len(audio), maxBytes)
	}

	detected := mimetype.Detect(audio)
	if isAudioType(detected) {
		return nil
	}
	// Some recorders emit streams without a recognizable header; trust an
	// explicit audio hint and let conversion decide.
	if detected.Is("application/octet-stream") && isAudioMIME(mimeHint) {
		return nil
	}
	return fmt.Errorf("%w: detected %s", ErrInvalidAudio, detected.String())
}

func isAudioType(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if isAudioMIME(m.String()) {
			return true
		}
	}
	return false
}

func isAudioMIME(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	if strings.HasPrefix(s, "audio/") {
		return true
	}
	for _, c := range containers {
		if s == c {
			return true
		}
	}
	return false
}

// IsPCM16kMonoWAV reports whether b is a RIFF/WAVE file whose fmt chunk
// describes 16-bit mono PCM at 16 kHz.
func IsPCM16kMonoWAV(b []byte) bool {
	if len(b) < 12 || !bytes.Equal(b[0:4], []byte("RIFF")) || !bytes.Equal(b[8:12], []byte("WAVE")) {
		return false
	}
	for off := 12; off+8 <= len(b); {
		id := b[off : off+4]
		size := int(binary.LittleEndian.Uint32(b[off+4 : off+8]))
		body := off + 8
		if bytes.Equal(id, []byte("fmt ")) {
			if size < 16 || body+16 > len(b) {
				return false
			}
			format := binary.LittleEndian.Uint16(b[body : body+2])
			channels := binary.LittleEndian.Uint16(b[body+2 : body+4])
			rate := binary.LittleEndian.Uint32(b[body+4 : body+8])
			bits := binary.LittleEndian.Uint16(b[body+14 : body+16])
			return format == wavFormatPCM && channels == targetChannels &&
				rate == targetSampleRate && bits == targetBitsPerSamp
		}
		// chunks are word aligned
		off = body + size + size%2
	}
	return false
}

// EncodeWAV wraps 16-bit little-endian PCM in a canonical 44-byte WAV header.
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	blockAlign := channels * targetBitsPerSamp / 8
	byteRate := sampleRate * blockAlign

	buf := bytes.NewBuffer(make([]byte, 0, 44+len(pcm)))
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(wavFormatPCM))
	_ = binary.Write(buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(buf, binary.LittleEndian, uint16(targetBitsPerSamp))
	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}
