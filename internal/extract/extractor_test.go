package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"studynotes/internal/model"
	"studynotes/internal/pkg/apperr"
)

type fakeOCR struct {
	text  string
	err   error
	delay time.Duration
	calls int
}

func (f *fakeOCR) Recognize(ctx context.Context, normalized []byte) (string, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.text, f.err
}

func newTestExtractor(ocr OCR, timeout time.Duration) *Extractor {
	e := New(ocr, timeout, zap.NewNop())
	e.parsePDF = func(data []byte) (string, error) {
		if string(data) == "broken" {
			return "", errors.New("bad xref")
		}
		return "  pdf text\n", nil
	}
	e.normalize = func(data []byte) ([]byte, error) {
		if string(data) == "corrupt" {
			return nil, errors.New("unknown format")
		}
		return data, nil
	}
	return e
}

func TestMediaType(t *testing.T) {
	assert.Equal(t, "application/pdf", MediaType("application/pdf; charset=binary", nil))
	assert.Equal(t, "image/png", MediaType("IMAGE/PNG", nil))
	assert.Equal(t, "application/pdf", MediaType("application/octet-stream", []byte("%PDF-1.7\n")))
	assert.Equal(t, "text/plain", MediaType("", []byte("hello")))
}

func TestFileType(t *testing.T) {
	ft, err := FileType("application/pdf")
	require.NoError(t, err)
	assert.Equal(t, model.FileTypePDF, ft)

	ft, err = FileType("image/webp")
	require.NoError(t, err)
	assert.Equal(t, model.FileTypeImage, ft)

	_, err = FileType("text/plain")
	assert.ErrorIs(t, err, apperr.ErrUnsupportedType)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestExtract(t *testing.T) {
	ctx := context.Background()

	t.Run("pdf", func(t *testing.T) {
		text, err := newTestExtractor(&fakeOCR{}, time.Second).Extract(ctx, []byte("ok"), "application/pdf")
		require.NoError(t, err)
		assert.Equal(t, "pdf text", text)
	})

	t.Run("broken pdf", func(t *testing.T) {
		_, err := newTestExtractor(&fakeOCR{}, time.Second).Extract(ctx, []byte("broken"), "application/pdf")
		assert.ErrorIs(t, err, apperr.ErrExtraction)
	})

	t.Run("image", func(t *testing.T) {
		ocr := &fakeOCR{text: "handwritten notes"}
		text, err := newTestExtractor(ocr, time.Second).Extract(ctx, []byte("img"), "image/jpeg")
		require.NoError(t, err)
		assert.Equal(t, "handwritten notes", text)
		assert.Equal(t, 1, ocr.calls)
	})

	t.Run("corrupt image", func(t *testing.T) {
		ocr := &fakeOCR{}
		_, err := newTestExtractor(ocr, time.Second).Extract(ctx, []byte("corrupt"), "image/png")
		assert.ErrorIs(t, err, apperr.ErrExtraction)
		assert.Zero(t, ocr.calls)
	})

	t.Run("ocr engine failure yields empty text", func(t *testing.T) {
		text, err := newTestExtractor(&fakeOCR{err: errors.New("no tessdata")}, time.Second).Extract(ctx, []byte("img"), "image/png")
		require.NoError(t, err)
		assert.Empty(t, text)
	})

	t.Run("timeout", func(t *testing.T) {
		_, err := newTestExtractor(&fakeOCR{delay: time.Second}, 20*time.Millisecond).Extract(ctx, []byte("img"), "image/png")
		assert.ErrorIs(t, err, apperr.ErrExtraction)
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := newTestExtractor(&fakeOCR{}, time.Second).Extract(ctx, []byte("x"), "text/csv")
		assert.ErrorIs(t, err, apperr.ErrUnsupportedType)
	})
}

func onePagePDF(text string) []byte {
	stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestExtractRealPDF(t *testing.T) {
	ocr := &fakeOCR{}
	e := New(ocr, time.Second, zap.NewNop())

	data := onePagePDF("Mitochondria make ATP")
	text, err := e.Extract(context.Background(), data, MediaType("", data))
	require.NoError(t, err)
	assert.Equal(t, "Mitochondria make ATP", text)
	assert.Zero(t, ocr.calls)
}
