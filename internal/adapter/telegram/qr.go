package telegram

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

const qrSize = 256

// RenderQR encodes content as a PNG QR code.
func RenderQR(content string) ([]byte, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("render qr code: %w", err)
	}
	return png, nil
}
