package challenge

import (
	"context"
	"fmt"
)

// FieldType is the JSON type of a structured-output field.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldInteger FieldType = "integer"
)

// Field is one property of a structured response.
type Field struct {
	Name        string
	Type        FieldType
	Description string
}

// Schema describes the flat JSON object a structured request must return.
type Schema struct {
	Fields []Field
}

// Image is a generated raster.
type Image struct {
	Bytes    []byte
	MIMEType string
}

// Generator is the generative content backend.
type Generator interface {
	// GenerateJSON returns a JSON object matching schema.
	GenerateJSON(ctx context.Context, prompt string, schema Schema) ([]byte, error)
	// GenerateImage renders prompt into a single square image.
	GenerateImage(ctx context.Context, prompt string) (Image, error)
}

// Unavailable is the backend used when no credentials are configured.
type Unavailable struct{}

func (Unavailable) GenerateJSON(context.Context, string, Schema) ([]byte, error) {
	return nil, fmt.Errorf("%w: no backend configured", ErrProviderUnavailable)
}

func (Unavailable) GenerateImage(context.Context, string) (Image, error) {
	return Image{}, fmt.Errorf("%w: no backend configured", ErrProviderUnavailable)
}
