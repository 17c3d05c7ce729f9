package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/loungebot/internal/domain"
)

type fakeBlobStore struct {
	objects map[string][]byte
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (f *fakeBlobStore) Put(_ context.Context, path string, data io.Reader, _ string) error {
	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.objects[path] = buf
	return nil
}

func (f *fakeBlobStore) Get(_ context.Context, path string) (io.ReadCloser, error) {
	data, ok := f.objects[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeBlobStore) List(_ context.Context, prefix string) ([]domain.BlobInfo, error) {
	var infos []domain.BlobInfo
	for path, data := range f.objects {
		if strings.HasPrefix(path, prefix) {
			infos = append(infos, domain.BlobInfo{Path: path, Size: int64(len(data))})
		}
	}
	return infos, nil
}

func (f *fakeBlobStore) Exists(_ context.Context, path string) (bool, error) {
	_, ok := f.objects[path]
	return ok, nil
}

type fakeExportStore struct {
	entries []domain.ArchiveEntry
}

func (f *fakeExportStore) ListArchivedBefore(_ context.Context, before time.Time) ([]domain.ArchiveEntry, error) {
	var out []domain.ArchiveEntry
	for _, e := range f.entries {
		if e.LastUpdated.Before(before) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeExportStore) DeleteArchivedBefore(_ context.Context, before time.Time) (int64, error) {
	var kept []domain.ArchiveEntry
	var deleted int64
	for _, e := range f.entries {
		if e.LastUpdated.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	f.entries = kept
	return deleted, nil
}

func archiveEntry(id int64, updated time.Time) domain.ArchiveEntry {
	return domain.ArchiveEntry{Snapshot: domain.Snapshot{
		ID:          id,
		Team1:       "cloud9",
		Team2:       "fnatic",
		PoolValue1:  1000,
		PoolValue2:  1200,
		LastUpdated: updated,
	}}
}

func TestExportUploadsAndDeletes(t *testing.T) {
	ctx := context.Background()
	blobs := newFakeBlobStore()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	store := &fakeExportStore{entries: []domain.ArchiveEntry{
		archiveEntry(1, base.Add(-48*time.Hour)),
		archiveEntry(2, base.Add(-24*time.Hour)),
		archiveEntry(3, base.Add(time.Hour)),
	}}

	exporter := NewExporter(store, blobs, blobs)
	n, err := exporter.Export(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// Entry 3 is newer than the cutoff and must survive.
	require.Len(t, store.entries, 1)
	assert.Equal(t, int64(3), store.entries[0].ID)

	infos, err := blobs.List(ctx, "archive/snapshots/")
	require.NoError(t, err)
	require.Len(t, infos, 1)

	body, err := blobs.Get(ctx, infos[0].Path)
	require.NoError(t, err)
	defer body.Close()

	dec := json.NewDecoder(body)
	var lines []domain.ArchiveEntry
	for dec.More() {
		var e domain.ArchiveEntry
		require.NoError(t, dec.Decode(&e))
		lines = append(lines, e)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, int64(1), lines[0].ID)
	assert.Equal(t, int64(2), lines[1].ID)
}

func TestExportNothingAged(t *testing.T) {
	ctx := context.Background()
	blobs := newFakeBlobStore()
	store := &fakeExportStore{}

	exporter := NewExporter(store, blobs, blobs)
	n, err := exporter.Export(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, blobs.objects, "no object written for an empty export")
}
