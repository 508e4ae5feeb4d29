package vision

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// QRDecoder decodes QR codes with gozxing. It finds at most one symbol per frame.
type QRDecoder struct {
	reader gozxing.Reader
}

func NewQRDecoder() *QRDecoder {
	return &QRDecoder{reader: qrcode.NewQRCodeReader()}
}

func (d *QRDecoder) Decode(ctx context.Context, img *image.Gray) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("binarizing frame: %w", err)
	}

	result, err := d.reader.Decode(bmp, nil)
	if err != nil {
		// not found, checksum and format failures all mean nothing readable
		var readerErr gozxing.ReaderException
		if errors.As(err, &readerErr) {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding QR code: %w", err)
	}

	return []string{result.GetText()}, nil
}
