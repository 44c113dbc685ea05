package services

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// KeySources are the three ways a patient can hand over a private key
type KeySources struct {
	Text    string // typed or pasted
	File    []byte // uploaded key file, read as text
	QRImage []byte // uploaded or camera-captured QR image
}

// Kind names the source Resolve would use (for logs)
func (k KeySources) Kind() string {
	switch {
	case len(bytes.TrimSpace(k.File)) > 0:
		return "file"
	case len(k.QRImage) > 0:
		return "qr"
	case strings.TrimSpace(k.Text) != "":
		return "text"
	default:
		return "none"
	}
}

// Resolve picks one source: key file, then QR image, then typed text.
// No source, or an unreadable QR, fails validation before any network call.
func (k KeySources) Resolve() (string, error) {
	switch k.Kind() {
	case "file":
		return string(k.File), nil
	case "qr":
		key, err := DecodeQR(k.QRImage)
		if err != nil {
			return "", invalid("Could not read QR code. Please try again.")
		}
		return key, nil
	case "text":
		return k.Text, nil
	default:
		return "", invalid("Private key is required")
	}
}

// DecodeQR reads the text of the QR code in a PNG or JPEG image
func DecodeQR(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("binarize image: %w", err)
	}
	res, err := qrcode.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return "", fmt.Errorf("read QR code: %w", err)
	}
	if res.GetText() == "" {
		return "", fmt.Errorf("read QR code: empty payload")
	}
	return res.GetText(), nil
}
