package vision

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// TempFilePrefix names the transient images handed to the OCR engine.
const TempFilePrefix = "studynotes-ocr-"

// Engine reads text from an image file on disk.
type Engine interface {
	TextFromFile(path string) (string, error)
}

// Recognizer writes normalized images to a transient file, runs the engine on it
// and always removes the file afterwards.
type Recognizer struct {
	engine  Engine
	tempDir string
}

func NewRecognizer(engine Engine, tempDir string) *Recognizer {
	return &Recognizer{engine: engine, tempDir: tempDir}
}

// Recognize returns the OCR text of a PNG produced by Normalize.
func (r *Recognizer) Recognize(ctx context.Context, normalized []byte) (string, error) {
	f, err := os.CreateTemp(r.tempDir, TempFilePrefix+"*.png")
	if err != nil {
		return "", fmt.Errorf("create ocr temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(normalized); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write ocr temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close ocr temp file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, err := r.engine.TextFromFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
