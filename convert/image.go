package convert

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/HugoSmits86/nativewebp"
	"github.com/pkg/errors"
	"golang.org/x/image/webp"

	"github.com/ndlib/fragments/mimetype"
)

var decoders = map[string]func(io.Reader) (image.Image, error){
	mimetype.PNG:  png.Decode,
	mimetype.JPEG: jpeg.Decode,
	mimetype.GIF:  gif.Decode,
	mimetype.WebP: webp.Decode,
}

var encoders = map[string]func(io.Writer, image.Image) error{
	mimetype.PNG: png.Encode,
	mimetype.JPEG: func(w io.Writer, img image.Image) error {
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	},
	mimetype.GIF: func(w io.Writer, img image.Image) error {
		return gif.Encode(w, img, nil)
	},
	mimetype.WebP: func(w io.Writer, img image.Image) error {
		return nativewebp.Encode(w, img, nil)
	},
}

// recode returns a Func decoding an image of type from and encoding it as
// type to. Only an animated GIF's first frame is kept.
func (c *Converter) recode(from, to string) Func {
	decode := decoders[from]
	encode := encoders[to]
	return func(data []byte) ([]byte, error) {
		c.gate.Enter()
		defer c.gate.Leave()
		img, err := decode(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrapf(err, "decode %s", from)
		}
		var buf bytes.Buffer
		if err := encode(&buf, img); err != nil {
			return nil, errors.Wrapf(err, "encode %s", to)
		}
		return buf.Bytes(), nil
	}
}
