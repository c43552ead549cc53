package extract

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"studynotes/internal/model"
	"studynotes/internal/pkg/apperr"
	"studynotes/internal/pkg/pdfextract"
	"studynotes/internal/vision"
)

// OCR reads text from a normalized PNG image.
type OCR interface {
	Recognize(ctx context.Context, normalized []byte) (string, error)
}

// Extractor turns uploaded PDFs and images into plain text.
type Extractor struct {
	parsePDF  func([]byte) (string, error)
	normalize func([]byte) ([]byte, error)
	ocr       OCR
	timeout   time.Duration
	logger    *zap.Logger
}

func New(ocr OCR, timeout time.Duration, logger *zap.Logger) *Extractor {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Extractor{
		parsePDF:  pdfextract.ExtractText,
		normalize: vision.Normalize,
		ocr:       ocr,
		timeout:   timeout,
		logger:    logger,
	}
}

// MediaType strips parameters from a declared Content-Type and sniffs the
// bytes when the client sent nothing useful.
func MediaType(declared string, data []byte) string {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil || mediaType == "" || mediaType == "application/octet-stream" {
		mediaType, _, _ = mime.ParseMediaType(http.DetectContentType(data))
	}
	return strings.ToLower(mediaType)
}

// FileType maps a media type onto a StudyMaterial file type.
func FileType(mediaType string) (string, error) {
	switch {
	case mediaType == "application/pdf":
		return model.FileTypePDF, nil
	case strings.HasPrefix(mediaType, "image/"):
		return model.FileTypeImage, nil
	default:
		return "", fmt.Errorf("%w: %s", apperr.ErrUnsupportedType, mediaType)
	}
}

// Extract returns the text of data. An image the OCR engine cannot read yields
// an empty string; undecodable input and timeouts are ErrExtraction.
func (e *Extractor) Extract(ctx context.Context, data []byte, mediaType string) (string, error) {
	fileType, err := FileType(mediaType)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := e.extract(ctx, fileType, data)
		done <- result{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %s extraction stopped: %w", apperr.ErrExtraction, fileType, ctx.Err())
	case r := <-done:
		return r.text, r.err
	}
}

func (e *Extractor) extract(ctx context.Context, fileType string, data []byte) (string, error) {
	if fileType == model.FileTypePDF {
		text, err := e.parsePDF(data)
		if err != nil {
			return "", fmt.Errorf("%w: %w", apperr.ErrExtraction, err)
		}
		return strings.TrimSpace(text), nil
	}

	normalized, err := e.normalize(data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperr.ErrExtraction, err)
	}
	text, err := e.ocr.Recognize(ctx, normalized)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %w", apperr.ErrExtraction, ctx.Err())
		}
		e.logger.Warn("ocr failed, continuing without text", zap.Error(err), zap.Int("bytes", len(data)))
		return "", nil
	}
	return text, nil
}
