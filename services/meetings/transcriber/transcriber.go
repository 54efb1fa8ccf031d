// Package transcriber sends meeting audio to a speech-capable model and
// returns its raw text answer.
package transcriber

import (
	"context"

	"github.com/xilidan/meetings/services/meetings/entity"
)

// Transcriber returns the model's raw text for the given audio. Failures are
// classified as entity.ErrServiceUnavailable (the service cannot be reached or
// used at all) or entity.ErrServiceError (the call itself failed).
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// Unavailable is used when no transcription backend is configured.
type Unavailable struct {
	Reason string
}

func (u Unavailable) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	return "", entity.NewServiceUnavailable("transcription service is temporarily unavailable: "+u.Reason, nil)
}
