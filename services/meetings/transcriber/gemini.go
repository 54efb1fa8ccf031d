package transcriber

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/xilidan/meetings/pkg/logger"
	"github.com/xilidan/meetings/services/meetings/entity"
)

const DefaultModel = "gemini-3.0-flash"

const Prompt = `Transcribe el audio de esta reunión en español.

Devuelve la respuesta con estas secciones:

Transcripción:
El texto completo de la reunión, con marcas de tiempo [MM:SS] al inicio de cada intervención.

Resumen:
Entre 3 y 5 viñetas con los temas y decisiones principales.

Acciones:
Una viñeta por cada tarea acordada, empezando cada línea con "- ". Si no hay tareas, omite la sección.`

type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGemini(ctx context.Context, projectID, region, modelName string) (*Gemini, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewGemini: projectID and region cannot be empty")
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	client, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](0.2),
	}

	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	log := logger.With(ctx, "mime_type", mimeType, "audio_bytes", len(audio))
	log.Debug("calling gemini")

	resp, err := g.model.GenerateContent(ctx, genai.Blob{MIMEType: mimeType, Data: audio}, genai.Text(Prompt))
	if err != nil {
		log.Error("gemini call failed", "error", err)
		return "", classify(err)
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", entity.NewServiceError("empty response from transcription model")
	}
	log.Debug("gemini answered", "chars", len(text))
	return text, nil
}

func (g *Gemini) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// classify maps credential problems to ServiceUnavailable; everything else the
// model call returns is a ServiceError carrying the upstream message.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	switch status.Code(err) {
	case codes.Unauthenticated, codes.PermissionDenied:
		return entity.NewServiceUnavailable("transcription service is temporarily unavailable", err)
	}
	if s, ok := status.FromError(err); ok && s.Message() != "" {
		return entity.NewServiceError(s.Message())
	}
	return entity.NewServiceError(err.Error())
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}
