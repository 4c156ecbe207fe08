package photo

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"

	"wedding-guestsync/internal/models"
)

const jpegQuality = 85

// Normalize decodes an image and downscales it to at most maxWidth
// pixels wide before it enters the queue, so slow venue uplinks are
// not saturated by full-resolution phone photos. Images already within
// bounds are re-encoded as JPEG; undecodable data is rejected with a
// validation error.
func Normalize(data []byte, maxWidth uint) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, models.ValidationError("photo.Normalize", fmt.Errorf("decode image: %w", err))
	}

	width := uint(img.Bounds().Dx())
	if width > maxWidth {
		img = resize.Resize(maxWidth, 0, img, resize.Lanczos3)
	} else if format == "jpeg" {
		// Already a JPEG within bounds; keep the original bytes.
		return data, nil
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, models.ValidationError("photo.Normalize", fmt.Errorf("encode image: %w", err))
	}
	return buf.Bytes(), nil
}
