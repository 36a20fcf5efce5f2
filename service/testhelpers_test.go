package service

import (
	"bytes"
	"encoding/base64"
	"errors"
	"io"

	"legaltriad-backend/models"
)

// memFile is an in-memory RawFile
type memFile struct {
	name, mimeType string
	data           []byte
	openErr        error
}

func (f memFile) Name() string     { return f.name }
func (f memFile) MimeType() string { return f.mimeType }
func (f memFile) Open() (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

var pdfHeader = []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n")

func pdf(name string) memFile {
	return memFile{name: name, mimeType: "application/pdf", data: append(append([]byte{}, pdfHeader...), name...)}
}

func brokenFile(name string) memFile {
	return memFile{name: name, mimeType: "application/pdf", openErr: errors.New("disk on fire")}
}

func encoded(name string) models.EncodedFile {
	f := pdf(name)
	return models.EncodedFile{Name: name, MimeType: "application/pdf", Payload: base64.StdEncoding.EncodeToString(f.data)}
}

func rawFiles(files ...memFile) []RawFile {
	out := make([]RawFile, len(files))
	for i, f := range files {
		out[i] = f
	}
	return out
}
