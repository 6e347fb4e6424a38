package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/docuchat/docuchat/internal/pkg/errors"
)

// Extractor parses PDF bytes into per-page text, tables and significant
// images. OCR is pluggable so pipelines can run without tesseract installed.
type Extractor struct {
	ocr OCREngine
}

func New(ocr OCREngine) *Extractor {
	return &Extractor{ocr: ocr}
}

// Extract walks every page of the document. A PDF that cannot be opened at
// all fails the whole call; failures on a single page degrade to an empty
// page so one bad object does not sink the document.
func (e *Extractor) Extract(ctx context.Context, data []byte) (*Result, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %v", appErr.ErrInvalid, err)
	}
	pageCount := reader.NumPage()
	if pageCount == 0 {
		return nil, fmt.Errorf("%w: pdf has no pages", appErr.ErrInvalid)
	}
	dims, err := api.PageDims(bytes.NewReader(data), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: read page dimensions: %v", appErr.ErrInvalid, err)
	}
	imagesByPage := e.rawImagesByPage(ctx, data)

	result := &Result{PageCount: pageCount, Pages: make([]Page, 0, pageCount)}
	for number := 1; number <= pageCount; number++ {
		page := Page{Number: number}
		if number-1 < len(dims) {
			page.Width = dims[number-1].Width
			page.Height = dims[number-1].Height
		}
		e.fillPageText(ctx, reader, &page)
		page.Images = e.filterImages(ctx, imagesByPage[number], page.Width, page.Height)
		result.Pages = append(result.Pages, page)
	}
	return result, nil
}

func (e *Extractor) fillPageText(ctx context.Context, reader *pdf.Reader, page *Page) {
	defer func() {
		// the pdf content stream parser panics on some malformed streams
		if r := recover(); r != nil {
			logutil.GetLogger(ctx).Warn("page content parse panic",
				zap.Int("page", page.Number), zap.Any("reason", r))
		}
	}()
	p := reader.Page(page.Number)
	if p.V.IsNull() {
		return
	}
	spans := pageSpans(p)
	page.Tables = detectTables(spans)
	text, err := p.GetPlainText(nil)
	if err != nil {
		logutil.GetLogger(ctx).Warn("plain text extraction failed",
			zap.Int("page", page.Number), zap.Error(err))
		text = joinSpans(spans)
	}
	page.Text = strings.TrimSpace(text)
}

func pageSpans(p pdf.Page) []span {
	content := p.Content()
	spans := make([]span, 0, len(content.Text))
	for _, t := range content.Text {
		if t.S == "" {
			continue
		}
		spans = append(spans, span{
			x:        t.X,
			y:        t.Y,
			w:        t.W,
			fontSize: t.FontSize,
			text:     t.S,
		})
	}
	return spans
}
