package decoder

import (
	"image"

	"github.com/makiuchi-d/gozxing"
	zxqr "github.com/makiuchi-d/gozxing/qrcode"
)

// Decoder extracts at most one text payload from a raster frame. A frame
// without a readable code is absence of a result, not an error.
type Decoder interface {
	Decode(img image.Image) (string, bool)
}

// ZXing decodes QR codes through the gozxing port of the ZXing library.
type ZXing struct {
	reader gozxing.Reader
}

func NewZXing() *ZXing {
	return &ZXing{reader: zxqr.NewQRCodeReader()}
}

func (d *ZXing) Decode(img image.Image) (string, bool) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", false
	}

	result, err := d.reader.Decode(bmp, nil)
	if err != nil {
		return "", false
	}

	return result.GetText(), true
}
