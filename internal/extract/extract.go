// Package extract pulls plain text out of uploaded resumes so the parser can
// turn it into structured content.
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"portfolio-backend/internal/shared/apperr"
	"portfolio-backend/internal/shared/storage/object"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	// DerivedSuffix is appended to an upload's key for its extracted text.
	DerivedSuffix = ".extracted.txt"
)

// ErrUnsupported is returned for payloads that are neither PDF nor DOCX.
var ErrUnsupported = fmt.Errorf("unsupported file type: %w", apperr.ErrInvalid)

// ErrUnreadable is returned when a supported file cannot be decoded.
var ErrUnreadable = fmt.Errorf("unreadable file: %w", apperr.ErrInvalid)

// FromStore reads a stored upload, extracts its text and keeps a derived
// .extracted.txt copy next to it when the store supports keyed writes.
func FromStore(ctx context.Context, store object.ObjectStore, key, mimeType, fileName string) (string, error) {
	body, err := store.Open(ctx, key)
	if err != nil {
		return "", apperr.Unavailable("extract.open", err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return "", apperr.Unavailable("extract.read", err)
	}
	text, err := Text(ctx, raw, mimeType, fileName)
	if err != nil {
		return "", err
	}

	if saver, ok := store.(object.KeySaver); ok {
		if _, err := saver.SaveWithKey(ctx, key+DerivedSuffix, "text/plain; charset=utf-8", strings.NewReader(text)); err != nil {
			return "", apperr.Unavailable("extract.save", err)
		}
	}
	return text, nil
}

// Text extracts text from an in-memory payload.
func Text(ctx context.Context, data []byte, mimeType, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var (
		text string
		err  error
	)
	switch kind := Detect(mimeType, fileName, data); kind {
	case MimePDF:
		text, err = pdfText(data)
	case MimeDOCX:
		text, err = docxText(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, kind)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return strings.TrimSpace(text), nil
}

// Detect resolves the effective content type. Sniffed zip payloads are
// inspected for a Word document body; the extension is the last resort.
func Detect(mimeType, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return MimePDF
	}
	if clean != "application/zip" && clean != "application/octet-stream" {
		return clean
	}
	if isDOCX(data) {
		return MimeDOCX
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return MimePDF
	case ".docx":
		return MimeDOCX
	}
	return clean
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func docxBody(data []byte) (*zip.File, error) {
	if len(data) == 0 {
		return nil, errors.New("empty docx data")
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return f, nil
		}
	}
	return nil, errors.New("word/document.xml not found")
}

func isDOCX(data []byte) bool {
	_, err := docxBody(data)
	return err == nil
}

func docxText(data []byte) (string, error) {
	f, err := docxBody(data)
	if err != nil {
		return "", err
	}
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return stripDocxXML(rc)
}

// stripDocxXML keeps character data and breaks lines at paragraph ends.
func stripDocxXML(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.Write(t)
		case xml.EndElement:
			if (t.Name.Local == "p" || t.Name.Local == "br") && buf.Len() > 0 {
				buf.WriteString("\n")
			}
		}
	}
	return buf.String(), nil
}
