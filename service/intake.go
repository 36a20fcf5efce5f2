package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"

	"legaltriad-backend/models"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"
)

// RawFile is a user-selected file before encoding
type RawFile interface {
	Name() string
	MimeType() string
	Open() (io.ReadCloser, error)
}

// AddFiles encodes a batch and merges it into current according to the
// category's semantics: law replaces, doctrine and jurisprudence append.
// Files are read concurrently but keep their input order. If any file fails
// the whole batch is rejected and current is returned unchanged.
func AddFiles(ctx context.Context, category models.Category, current models.DocumentSet, files []RawFile) (models.DocumentSet, error) {
	if len(files) == 0 {
		return current.Clone(), nil
	}

	encoded := make([]models.EncodedFile, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			ef, err := encodeFile(gctx, f)
			if err != nil {
				return fmt.Errorf("%w %q: %w", ErrFileRead, f.Name(), err)
			}
			encoded[i] = ef
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return current, err
	}

	if !category.Cumulative() {
		return models.DocumentSet(encoded), nil
	}
	out := make(models.DocumentSet, 0, len(current)+len(encoded))
	out = append(out, current...)
	return append(out, encoded...), nil
}

// RemoveFile returns current without the element at index
func RemoveFile(current models.DocumentSet, index int) (models.DocumentSet, error) {
	if index < 0 || index >= len(current) {
		return current, fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, len(current))
	}
	out := make(models.DocumentSet, 0, len(current)-1)
	out = append(out, current[:index]...)
	return append(out, current[index+1:]...), nil
}

func encodeFile(ctx context.Context, f RawFile) (models.EncodedFile, error) {
	if err := ctx.Err(); err != nil {
		return models.EncodedFile{}, err
	}
	rc, err := f.Open()
	if err != nil {
		return models.EncodedFile{}, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return models.EncodedFile{}, err
	}

	return models.EncodedFile{
		Name:     f.Name(),
		MimeType: resolveMimeType(f.MimeType(), data),
		Payload:  base64.StdEncoding.EncodeToString(data),
	}, nil
}

// resolveMimeType keeps the declared type unless it is missing or generic
func resolveMimeType(declared string, data []byte) string {
	if declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "application/octet-stream" {
			return mt
		}
	}
	detected, _, _ := mime.ParseMediaType(mimetype.Detect(data).String())
	return detected
}
