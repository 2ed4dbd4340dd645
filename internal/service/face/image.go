package face

import (
	"bytes"
	"image"
	"image/png"

	// Registered decoders for reference and attendance photos.
	_ "image/gif"
	_ "image/jpeg"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// InputSize is the square edge the embedding model expects.
const InputSize = 224

// Normalize decodes a jpeg, png, gif or webp photo, scales it to
// InputSize x InputSize and re-encodes it as png.
func Normalize(raw []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, "unsupported image")
	}

	dst := image.NewRGBA(image.Rect(0, 0, InputSize, InputSize))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, errors.Wrap(err, "encoding image")
	}
	return buf.Bytes(), nil
}
