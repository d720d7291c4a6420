package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"

	"listsnap/internal/platform/config"
	"listsnap/internal/shopping/models"
)

const (
	noTextMarker = "NO_TEXT"

	transcribePrompt = `Transcribe the shopping list in this photo.
Write exactly one item per line, in the order they appear, keeping any bullets or numbering.
Do not add commentary, headings or formatting.
If the photo does not contain a readable list, answer with the single word ` + noTextMarker + `.`
)

// VertexEngine transcribes photos with a Gemini model on Vertex AI.
type VertexEngine struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	readFile func(string) ([]byte, error)
	logger   *slog.Logger
}

// NewVertexEngine connects to Vertex AI using cfg.
func NewVertexEngine(ctx context.Context, cfg config.OCRConfig, logger *slog.Logger) (*VertexEngine, error) {
	opts := []option.ClientOption{}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Location, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vertex client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(0)

	return &VertexEngine{
		client:   client,
		model:    model,
		readFile: os.ReadFile,
		logger:   logger,
	}, nil
}

// Recognize reads the image at imageRef and asks the model for its text.
func (e *VertexEngine) Recognize(ctx context.Context, imageRef string) (Recognition, error) {
	data, err := e.readFile(imageRef)
	if err != nil {
		return Recognition{Status: models.OCRFailed}, fmt.Errorf("read image %s: %w", imageRef, err)
	}

	resp, err := e.model.GenerateContent(ctx, genai.Text(transcribePrompt), genai.ImageData(imageFormat(imageRef), data))
	if err != nil {
		return Recognition{Status: models.OCRFailed}, fmt.Errorf("generate content: %w", err)
	}

	rec := recognitionFromResponse(resp)
	e.logger.DebugContext(ctx, "vertex recognition finished", "image", imageRef, "status", rec.Status.String(), "chars", len(rec.Text))
	return rec, nil
}

func (e *VertexEngine) Close() error {
	return e.client.Close()
}

// recognitionFromResponse joins the text parts of the first candidate.
func recognitionFromResponse(resp *genai.GenerateContentResponse) Recognition {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Recognition{Status: models.OCRFailed}
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	text := stripFence(strings.TrimSpace(b.String()))
	if text == "" || text == noTextMarker {
		return Recognition{Status: models.OCRFailed}
	}
	return Recognition{Text: text, Status: models.OCRCompleted}
}

// stripFence removes a surrounding markdown code fence.
func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	} else {
		return ""
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "```"))
}

// imageFormat returns the genai image format for path's extension.
func imageFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".webp":
		return "webp"
	case ".heic":
		return "heic"
	}
	return "jpeg"
}
