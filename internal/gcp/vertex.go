package gcp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"github.com/Lllllllleong/documentscanflow/internal/pipeline"
)

// --- Text Extraction Model Prompts ---
const ExtractorSystemPrompt = "You are an OCR engine for scanned documents. You transcribe the text visible in an image exactly as written. You never summarize, translate or comment."
const ExtractorUserPrompt = `Transcribe all text in the provided scanned page.

Rules:
1.  Keep the reading order of the page: top to bottom, left to right, column by column.
2.  Keep line breaks between lines and a blank line between paragraphs.
3.  Reproduce numbers, dates, amounts and identifiers character for character.
4.  Ignore handwriting that only crosses out or underlines printed text.
5.  If the page contains no readable text, return an empty response.

Return ONLY the transcribed text, without preambles or backtick fences.`

// DefaultExtractorModel is the Gemini model used for page text.
const DefaultExtractorModel = "gemini-1.5-pro"

// VertexExtractor reads page text with a Gemini model.
type VertexExtractor struct {
	model      *genai.GenerativeModel
	baseClient *genai.Client
}

var _ pipeline.Extractor = (*VertexExtractor)(nil)

// NewVertexExtractor creates a client holding the configured model.
func NewVertexExtractor(ctx context.Context, projectID, region string) (*VertexExtractor, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexExtractor: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	model := baseClient.GenerativeModel(DefaultExtractorModel)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(ExtractorSystemPrompt)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](0.0),
	}

	return &VertexExtractor{model: model, baseClient: baseClient}, nil
}

// imageFormat maps sniffed content to the format genai.ImageData expects.
func imageFormat(data []byte) (string, error) {
	ct := http.DetectContentType(data)
	format, ok := strings.CutPrefix(ct, "image/")
	if !ok {
		return "", fmt.Errorf("raster is %s, not an image", ct)
	}
	return format, nil
}

// Extract sends the raster inline with the transcription prompt.
func (v *VertexExtractor) Extract(ctx context.Context, raster []byte) (string, error) {
	format, err := imageFormat(raster)
	if err != nil {
		return "", err
	}

	resp, err := v.model.GenerateContent(ctx, genai.ImageData(format, raster), genai.Text(ExtractorUserPrompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content from gemini: %w", err)
	}

	text := ResponseText(resp)
	if refused(text) {
		slog.Warn("Gemini refused the transcription", "response", text)
		return "", fmt.Errorf("gemini response indicates refusal")
	}
	return text, nil
}

func (v *VertexExtractor) Close() error {
	if v.baseClient != nil {
		return v.baseClient.Close()
	}
	return nil
}

// ResponseText concatenates the text parts of the first candidate and strips
// a surrounding code fence.
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return StripFence(b.String())
}

// StripFence removes a ``` or ```text fence around s.
func StripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], " \t") {
		s = s[nl+1:] // language tag
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

var refusalPhrases = []string{
	"i am unable to",
	"i cannot fulfill",
	"i cannot answer",
	"i cannot provide",
	"as a large language model",
}

func refused(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
