package extract

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// MinTextLength is the fewest characters a usable resume must yield after normalization.
const MinTextLength = 50

// Supported extensions.
const (
	ExtPDF  = ".pdf"
	ExtDOCX = ".docx"
	ExtDOC  = ".doc"
)

var excessBlankLines = regexp.MustCompile(`\n{3,}`)

// Supported reports whether ext (lower-case, with dot) has an extractor.
func Supported(ext string) bool {
	switch strings.ToLower(ext) {
	case ExtPDF, ExtDOCX, ExtDOC:
		return true
	default:
		return false
	}
}

// ExtractFile reads the document at path and returns its normalized text.
// Libraries used: github.com/ledongthuc/pdf (PDF) and github.com/nguyenthenguyen/docx (Word).
func ExtractFile(ctx context.Context, path string, ext string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ext = strings.ToLower(strings.TrimSpace(ext))
	if !Supported(ext) {
		return "", &UnsupportedFormatError{Extension: ext}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", &ExtractionError{Format: strings.TrimPrefix(ext, "."), Cause: fmt.Errorf("read: %w", err)}
	}
	return ExtractTextFromBytes(ctx, raw, ext)
}

// ExtractTextFromBytes extracts and normalizes text from an in-memory payload.
func ExtractTextFromBytes(ctx context.Context, data []byte, ext string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ext = strings.ToLower(strings.TrimSpace(ext))

	var (
		text string
		err  error
	)
	switch ext {
	case ExtPDF:
		text, err = extractPDF(data)
	case ExtDOCX, ExtDOC:
		text, err = extractDOCX(data)
	default:
		return "", &UnsupportedFormatError{Extension: ext}
	}
	format := strings.TrimPrefix(ext, ".")
	if err != nil {
		return "", &ExtractionError{Format: format, Cause: err}
	}

	text = Normalize(text)
	if utf8.RuneCountInString(text) < MinTextLength {
		return "", &ExtractionError{Format: format, Cause: ErrInsufficientText}
	}
	return text, nil
}

// Normalize converts CRLF to LF, collapses runs of 3+ newlines to 2 and trims.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = excessBlankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func extractPDF(data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", errors.New("empty pdf data")
	}
	// The PDF codec panics on some malformed streams.
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open word document: %w", err)
	}
	defer doc.Close()

	return stripDocxXML(doc.Editable().GetContent())
}

func stripDocxXML(raw string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	inText := false
	propsDepth := 0
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pPr":
				propsDepth++
			case "t":
				inText = true
			case "tab":
				if propsDepth == 0 {
					buf.WriteString("\t")
				}
			case "br", "cr":
				buf.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				buf.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "pPr":
				propsDepth--
			case "t":
				inText = false
			case "p":
				buf.WriteString("\n")
			}
		}
	}
	return buf.String(), nil
}
