package vision

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalizeGrayscaleAndStretch(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, minOCRWidth, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < minOCRWidth; x++ {
			v := uint8(100)
			if x >= minOCRWidth/2 {
				v = 150
			}
			src.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}

	out, err := Normalize(encodePNG(t, src))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	gray, ok := img.(*image.Gray)
	require.True(t, ok, "normalized image should be grayscale")
	assert.Equal(t, minOCRWidth, gray.Bounds().Dx())
	assert.Equal(t, uint8(0), gray.GrayAt(10, 1).Y)
	assert.Equal(t, uint8(255), gray.GrayAt(minOCRWidth-10, 1).Y)
}

func TestResizeBounds(t *testing.T) {
	small := resize(image.NewRGBA(image.Rect(0, 0, 300, 100)))
	assert.Equal(t, image.Rect(0, 0, minOCRWidth, 400), small.Bounds())

	large := resize(image.NewRGBA(image.Rect(0, 0, 6000, 3000)))
	assert.Equal(t, image.Rect(0, 0, maxOCRWidth, 1500), large.Bounds())

	mid := image.NewRGBA(image.Rect(0, 0, 1600, 900))
	assert.Same(t, mid, resize(mid))
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	_, err := Normalize([]byte("definitely not an image"))
	assert.Error(t, err)
}

type fakeEngine struct {
	text     string
	err      error
	seenPath string
	existed  bool
}

func (f *fakeEngine) TextFromFile(path string) (string, error) {
	f.seenPath = path
	_, statErr := os.Stat(path)
	f.existed = statErr == nil
	return f.text, f.err
}

func tempFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, TempFilePrefix+"*"))
	require.NoError(t, err)
	return matches
}

func TestRecognizerRemovesTempFile(t *testing.T) {
	dir := t.TempDir()
	engine := &fakeEngine{text: "  Mitochondria is the powerhouse\n"}
	r := NewRecognizer(engine, dir)

	text, err := r.Recognize(context.Background(), []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "Mitochondria is the powerhouse", text)
	assert.True(t, engine.existed)
	assert.Equal(t, dir, filepath.Dir(engine.seenPath))
	assert.Empty(t, tempFiles(t, dir))
}

func TestRecognizerRemovesTempFileOnFailure(t *testing.T) {
	dir := t.TempDir()
	r := NewRecognizer(&fakeEngine{err: errors.New("tesseract crashed")}, dir)

	_, err := r.Recognize(context.Background(), []byte("png-bytes"))
	assert.Error(t, err)
	assert.Empty(t, tempFiles(t, dir))
}
