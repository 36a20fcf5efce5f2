package service

import (
	"context"
	"encoding/base64"
	"testing"

	"legaltriad-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddFilesEncodesPayload(t *testing.T) {
	set, err := AddFiles(context.Background(), models.CategoryLaw, nil, rawFiles(pdf("lei.pdf")))
	require.NoError(t, err)
	require.Len(t, set, 1)

	assert.Equal(t, "lei.pdf", set[0].Name)
	assert.Equal(t, "application/pdf", set[0].MimeType)
	decoded, err := base64.StdEncoding.DecodeString(set[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, pdf("lei.pdf").data, decoded)
}

func TestAddFilesSniffsMissingMimeType(t *testing.T) {
	f := pdf("scan")
	f.mimeType = ""
	g := pdf("upload.bin")
	g.mimeType = "application/octet-stream"

	set, err := AddFiles(context.Background(), models.CategoryDoctrine, nil, rawFiles(f, g))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", set[0].MimeType)
	assert.Equal(t, "application/pdf", set[1].MimeType)
}

func TestAddFilesAppendsInOrder(t *testing.T) {
	ctx := context.Background()
	for _, cat := range []models.Category{models.CategoryDoctrine, models.CategoryJurisprudence} {
		t.Run(string(cat), func(t *testing.T) {
			set, err := AddFiles(ctx, cat, nil, rawFiles(pdf("a"), pdf("b"), pdf("c")))
			require.NoError(t, err)
			set, err = AddFiles(ctx, cat, set, rawFiles(pdf("d"), pdf("a")))
			require.NoError(t, err)

			assert.Equal(t, []string{"a", "b", "c", "d", "a"}, set.Names(), "append, never dedup or reorder")
		})
	}
}

func TestAddFilesReplacesLaw(t *testing.T) {
	ctx := context.Background()
	set, err := AddFiles(ctx, models.CategoryLaw, nil, rawFiles(pdf("old.pdf")))
	require.NoError(t, err)

	set, err = AddFiles(ctx, models.CategoryLaw, set, rawFiles(pdf("new.pdf")))
	require.NoError(t, err)
	assert.Equal(t, []string{"new.pdf"}, set.Names())
}

func TestAddFilesRejectsWholeBatchOnFailure(t *testing.T) {
	ctx := context.Background()
	current := models.DocumentSet{encoded("kept")}

	set, err := AddFiles(ctx, models.CategoryDoctrine, current, rawFiles(pdf("ok"), brokenFile("bad"), pdf("ok2")))
	require.ErrorIs(t, err, ErrFileRead)
	assert.Contains(t, err.Error(), "bad")
	assert.Equal(t, []string{"kept"}, set.Names())
	assert.Equal(t, []string{"kept"}, current.Names())
}

func TestAddFilesEmptyBatchIsNoop(t *testing.T) {
	current := models.DocumentSet{encoded("lei.pdf")}
	set, err := AddFiles(context.Background(), models.CategoryLaw, current, nil)
	require.NoError(t, err)
	assert.Equal(t, current, set)
}

func TestAddFilesDoesNotAliasInput(t *testing.T) {
	current := make(models.DocumentSet, 1, 10)
	current[0] = encoded("a")

	set, err := AddFiles(context.Background(), models.CategoryDoctrine, current, rawFiles(pdf("b")))
	require.NoError(t, err)
	set[0].Name = "changed"
	assert.Equal(t, "a", current[0].Name)
}

func TestRemoveFileEveryPosition(t *testing.T) {
	original := models.DocumentSet{encoded("a"), encoded("b"), encoded("c"), encoded("d")}

	for i := range original {
		set, err := RemoveFile(original, i)
		require.NoError(t, err)

		want := make([]string, 0, len(original)-1)
		for j, f := range original {
			if j != i {
				want = append(want, f.Name)
			}
		}
		assert.Equal(t, want, set.Names(), "remove(%d)", i)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, original.Names(), "original untouched")
}

func TestRemoveFileOutOfRange(t *testing.T) {
	original := models.DocumentSet{encoded("a")}

	for _, idx := range []int{-1, 1, 5} {
		_, err := RemoveFile(original, idx)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	}
}
