package extract

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/lukasjarosch/go-docx"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/document"
)

func (e *Extractor) extractDOCX(doc document.Document, log *zap.Logger) (string, error) {
	tmp, err := os.CreateTemp(e.tempDir, "resume-*.docx")
	if err != nil {
		return "", newError(doc, "create temp file", err)
	}

	path := tmp.Name()
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn("removing temp file", zap.String("path", path), zap.Error(err))
		}
	}()

	if _, err := tmp.Write(doc.Data); err != nil {
		tmp.Close()
		return "", newError(doc, "write temp file", err)
	}

	if err := tmp.Close(); err != nil {
		return "", newError(doc, "write temp file", err)
	}

	d, err := docx.Open(path)
	if err != nil {
		return "", newError(doc, "open", err)
	}
	defer d.Close()

	text, err := plainText(d.GetFile(docx.DocumentXml))
	if err != nil {
		return "", newError(doc, "parse document.xml", err)
	}

	return text, nil
}

// plainText walks WordprocessingML and keeps run text. Paragraph ends and
// breaks become newlines.
func plainText(documentXML []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(documentXML))

	var builder strings.Builder
	inText := false
	// w:tab also appears inside w:tabs as a tab stop definition.
	tabStops := 0

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tabs":
				tabStops++
			case "tab":
				if tabStops == 0 {
					builder.WriteByte('\t')
				}
			case "br", "cr":
				builder.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "tabs":
				tabStops--
			case "p":
				builder.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				builder.Write(t)
			}
		}
	}

	return strings.TrimSpace(builder.String()), nil
}
