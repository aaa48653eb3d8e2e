package capture

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hudderr "github.com/huddleai/huddle/pkg/errors"
)

func pngFrame(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 16 {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 50, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEncodeKeepsSmallFrames(t *testing.T) {
	enc := NewEncoder(1920, 85)

	out, err := enc.Encode(pngFrame(t, 640, 480))
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 640, decoded.Bounds().Dx())
	assert.Equal(t, 480, decoded.Bounds().Dy())
}

func TestEncodeDownscalesLongEdge(t *testing.T) {
	enc := NewEncoder(1920, 85)

	out, err := enc.Encode(pngFrame(t, 3840, 2160))
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 1920, decoded.Bounds().Dx())
	assert.Equal(t, 1080, decoded.Bounds().Dy(), "aspect ratio preserved")
}

func TestEncodeDownscalesPortraitFrames(t *testing.T) {
	enc := NewEncoder(1000, 85)

	out, err := enc.Encode(pngFrame(t, 500, 2000))
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 1000, decoded.Bounds().Dy(), "long edge is the height here")
	assert.Equal(t, 250, decoded.Bounds().Dx())
}

func TestEncodeRejectsGarbage(t *testing.T) {
	enc := NewEncoder(1920, 85)

	_, err := enc.Encode([]byte("not an image"))
	require.Error(t, err)
	assert.True(t, hudderr.IsCode(err, hudderr.ErrCodeEncodeFailed))
}
