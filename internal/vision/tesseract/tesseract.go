// Package tesseract binds the OCR engine to the tesseract C library. It needs
// cgo plus the tesseract and leptonica headers, so only bootstrap imports it.
package tesseract

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"studynotes/internal/vision"
)

var _ vision.Engine = (*Engine)(nil)

// Engine runs tesseract through gosseract. Each call opens its own client.
type Engine struct {
	languages []string
}

func New(languages []string) *Engine {
	return &Engine{languages: languages}
}

func (e *Engine) TextFromFile(path string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if len(e.languages) > 0 {
		if err := client.SetLanguage(e.languages...); err != nil {
			return "", fmt.Errorf("set ocr language: %w", err)
		}
	}
	if err := client.SetImage(path); err != nil {
		return "", fmt.Errorf("set ocr image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("run ocr: %w", err)
	}
	return text, nil
}
