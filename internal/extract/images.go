package extract

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// rawImage is an embedded image before filtering.
type rawImage struct {
	data   []byte
	format string
}

// rawImagesByPage pulls every embedded image out of the document, grouped by
// 1-based page number. Extraction trouble is logged and tolerated since a
// document without recoverable images is still ingestible.
func (e *Extractor) rawImagesByPage(ctx context.Context, data []byte) map[int][]rawImage {
	pages, err := api.ExtractImagesRaw(bytes.NewReader(data), nil, nil)
	if err != nil {
		logutil.GetLogger(ctx).Warn("image extraction failed", zap.Error(err))
		return nil
	}
	byPage := make(map[int][]rawImage)
	for _, pageImages := range pages {
		for _, img := range pageImages {
			buf, err := io.ReadAll(img)
			if err != nil || len(buf) == 0 {
				continue
			}
			byPage[img.PageNr] = append(byPage[img.PageNr], rawImage{
				data:   buf,
				format: strings.TrimPrefix(img.FileType, "."),
			})
		}
	}
	return byPage
}

// filterImages applies the significance rules to one page's images. An image
// spanning nearly the full page in either dimension is treated as a scan
// background or banner and dropped before OCR ever runs. Everything else is
// kept when OCR finds text in it, or when both dimensions sit inside the
// significance band.
func (e *Extractor) filterImages(ctx context.Context, raw []rawImage, pageW, pageH float64) []Image {
	var kept []Image
	for _, r := range raw {
		w, h := imageDims(r.data)
		if isNearPageSize(w, h, pageW, pageH) {
			continue
		}
		text := e.recognize(ctx, r.data)
		if text == "" && !isSignificantSize(w, h, pageW, pageH) {
			continue
		}
		kept = append(kept, Image{
			Number:  len(kept) + 1,
			Data:    r.data,
			Format:  r.format,
			Width:   w,
			Height:  h,
			OCRText: text,
		})
	}
	return kept
}

func (e *Extractor) recognize(ctx context.Context, data []byte) string {
	if e.ocr == nil {
		return ""
	}
	text, err := e.ocr.Recognize(ctx, data)
	if err != nil {
		logutil.GetLogger(ctx).Debug("ocr failed", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(text)
}

// imageDims decodes just the header of the image. Pixel sizes are treated
// as display points at 72dpi. Unknown codecs report zero dimensions.
func imageDims(data []byte) (float64, float64) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return float64(cfg.Width), float64(cfg.Height)
}

// isNearPageSize reports whether an image reaches 90% of the page in either
// dimension. Full-width banners and full-height sidebars count, not just
// whole-page scans.
func isNearPageSize(w, h, pageW, pageH float64) bool {
	if pageW <= 0 || pageH <= 0 || w <= 0 || h <= 0 {
		return false
	}
	return w >= pageW*0.9 || h >= pageH*0.9
}

// isSignificantSize reports whether both dimensions exceed 5% of the smaller
// page dimension while staying under 90% of the page. Images outside the
// band with no OCR text are decoration.
func isSignificantSize(w, h, pageW, pageH float64) bool {
	if pageW <= 0 || pageH <= 0 || w <= 0 || h <= 0 {
		return false
	}
	floor := math.Min(pageW, pageH) * 0.05
	return w > floor && h > floor && w < pageW*0.9 && h < pageH*0.9
}
