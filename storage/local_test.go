package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	id := uuid.New()
	path, err := store.Upload(ctx, id, "brain scan.dcm", strings.NewReader("scan-bytes"))
	require.NoError(t, err)
	assert.Contains(t, path, id.String())
	assert.NotContains(t, path, " ")

	reader, err := store.Download(ctx, path)
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "scan-bytes", string(data))

	require.NoError(t, store.Delete(ctx, path))
	_, err = store.Download(ctx, path)
	assert.Error(t, err)
}

func TestLocalStorageDeleteMissingIsNoop(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Delete(context.Background(), "ab/missing.png"))
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "application/dicom", ContentTypeFor("scan.dcm"))
	assert.Equal(t, "image/png", ContentTypeFor("slice.png"))
	assert.Equal(t, "model/gltf-binary", ContentTypeFor("render.glb"))
	assert.Equal(t, "application/octet-stream", ContentTypeFor("raw.bin"))
	assert.Equal(t, "application/dicom", ContentTypeFor("ab/1234_brain_scan.dcm"))
}
