package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// OCREngine reads text out of an image. Implementations should return an
// empty string, not an error, when the image simply contains no text.
type OCREngine interface {
	Recognize(ctx context.Context, img []byte) (string, error)
}

// TesseractEngine runs OCR through a local tesseract installation.
type TesseractEngine struct {
	languages []string
}

func NewTesseractEngine(languages []string) *TesseractEngine {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &TesseractEngine{languages: languages}
}

func (t *TesseractEngine) Recognize(ctx context.Context, img []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	normalized, err := normalizeForOCR(img)
	if err != nil {
		// feed the raw bytes and let tesseract try anyway
		normalized = img
	}
	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(t.languages...); err != nil {
		return "", fmt.Errorf("set ocr language: %w", err)
	}
	if err := client.SetImageFromBytes(normalized); err != nil {
		return "", fmt.Errorf("load ocr image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("run ocr: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// normalizeForOCR grayscales the image and upscales tiny ones, which
// measurably improves tesseract accuracy on low resolution figures.
func normalizeForOCR(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	img = imaging.Grayscale(img)
	bounds := img.Bounds()
	if min(bounds.Dx(), bounds.Dy()) < 300 {
		img = imaging.Resize(img, bounds.Dx()*2, bounds.Dy()*2, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
