package capture

import (
	"bytes"
	"image"
	"image/jpeg"
	_ "image/png" // decode PNG frames from OS screenshot tools

	xdraw "golang.org/x/image/draw"

	hudderr "github.com/huddleai/huddle/pkg/errors"
)

// Encoder downsizes captured frames and re-encodes them as JPEG.
type Encoder struct {
	// MaxDimension caps the long edge in pixels. Frames already within the
	// cap are re-encoded without scaling.
	MaxDimension int
	// Quality is the JPEG quality, 1-100.
	Quality int
}

// NewEncoder returns an encoder with the supplied bounds.
func NewEncoder(maxDimension, quality int) *Encoder {
	return &Encoder{MaxDimension: maxDimension, Quality: quality}
}

// Encode decodes raw image bytes, scales the long edge down to MaxDimension
// if needed, and encodes the result as JPEG.
func (e *Encoder) Encode(raw []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, hudderr.Wrap(err, hudderr.ErrCodeEncodeFailed, "decoding captured frame")
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if e.MaxDimension > 0 && (w > e.MaxDimension || h > e.MaxDimension) {
		scale := float64(e.MaxDimension) / float64(w)
		if h > w {
			scale = float64(e.MaxDimension) / float64(h)
		}
		dw := int(float64(w) * scale)
		dh := int(float64(h) * scale)
		if dw < 1 {
			dw = 1
		}
		if dh < 1 {
			dh = 1
		}

		dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
		xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, xdraw.Src, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: e.Quality}); err != nil {
		return nil, hudderr.Wrap(err, hudderr.ErrCodeEncodeFailed, "encoding JPEG")
	}
	return buf.Bytes(), nil
}
