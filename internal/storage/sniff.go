package storage

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLen matches the number of bytes mimetype inspects by default.
const sniffLen = 3072

type Sniffed struct {
	MimeType  string
	Extension string
	// Reader replays the sniffed header followed by the rest of the input.
	Reader io.Reader
}

// Sniff detects the content type from the first bytes of r. When the content is
// not recognized the file extension is used instead.
func Sniff(r io.Reader, fileName string) (*Sniffed, error) {
	header := make([]byte, sniffLen)
	n, err := io.ReadFull(r, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("error reading upload: %w", err)
	}
	header = header[:n]

	detected := mimetype.Detect(header)
	mimeType, _, _ := strings.Cut(detected.String(), ";")
	ext := detected.Extension()

	if detected.Is("application/octet-stream") || detected.Is("text/plain") {
		fileExt := strings.ToLower(filepath.Ext(fileName))
		if byExt := mime.TypeByExtension(fileExt); byExt != "" {
			mimeType, _, _ = strings.Cut(byExt, ";")
			ext = fileExt
		}
	}

	return &Sniffed{
		MimeType:  strings.TrimSpace(mimeType),
		Extension: ext,
		Reader:    io.MultiReader(bytes.NewReader(header), r),
	}, nil
}

// IsDocumentType reports whether an identity document may have this MIME type.
func IsDocumentType(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/") || mimeType == "application/pdf"
}
