package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/document"
)

func (e *Extractor) extractPDF(doc document.Document, log *zap.Logger) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return "", newError(doc, "open", err)
	}

	var textBuilder strings.Builder
	totalPage := reader.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		text, err := pageText(reader, pageIndex)
		if err != nil {
			log.Debug("skipping unreadable page", zap.Int("page", pageIndex), zap.Error(err))
			continue
		}

		if text == "" {
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	log.Debug("pdf pages processed", zap.Int("pages", totalPage))

	return textBuilder.String(), nil
}

// pageText isolates a single page so a malformed page tree only costs that page.
func pageText(reader *pdf.Reader, index int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("page %d: %v", index, r)
		}
	}()

	page := reader.Page(index)
	if page.V.IsNull() {
		return "", nil
	}

	text, err = page.GetPlainText(nil)
	if err != nil {
		return "", err
	}

	// Page text comes with surrounding line breaks; the caller adds one per page.
	return strings.TrimSpace(text), nil
}
