// internal/challenge/genai.go
//
// Gemini-backed Generator.
//   - GenerateJSON: text model with responseMimeType=application/json + schema.
//   - GenerateImage: image model, one 1:1 PNG.

package challenge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GenAI implements Generator on top of the Gemini API.
type GenAI struct {
	client     *genai.Client
	textModel  string
	imageModel string
}

// NewGenAI creates a Gemini client for apiKey.
func NewGenAI(ctx context.Context, apiKey, textModel, imageModel string) (*GenAI, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("genai: missing api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai: new client: %w", err)
	}
	return &GenAI{client: c, textModel: textModel, imageModel: imageModel}, nil
}

func (g *GenAI) GenerateJSON(ctx context.Context, prompt string, schema Schema) ([]byte, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.textModel, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   toGenAISchema(schema),
	})
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, errors.New("genai: empty response")
	}
	return []byte(text), nil
}

func (g *GenAI) GenerateImage(ctx context.Context, prompt string) (Image, error) {
	resp, err := g.client.Models.GenerateImages(ctx, g.imageModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: "image/png",
		AspectRatio:    "1:1",
	})
	if err != nil {
		return Image{}, err
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return Image{}, errors.New("genai: no image returned")
	}
	img := resp.GeneratedImages[0].Image
	return Image{Bytes: img.ImageBytes, MIMEType: img.MIMEType}, nil
}

func toGenAISchema(s Schema) *genai.Schema {
	props := make(map[string]*genai.Schema, len(s.Fields))
	for _, f := range s.Fields {
		t := genai.TypeString
		if f.Type == FieldInteger {
			t = genai.TypeInteger
		}
		props[f.Name] = &genai.Schema{Type: t, Description: f.Description}
	}
	return &genai.Schema{Type: genai.TypeObject, Properties: props}
}
