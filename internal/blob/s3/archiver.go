package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alanyoungcy/loungebot/internal/domain"
)

// Exporter moves aged snapshot revisions out of the archive table into
// object storage as JSONL, one object per export run. Rows are deleted from
// the database only after the uploaded object is confirmed to exist.
type Exporter struct {
	store  domain.ArchiveExportStore
	writer domain.BlobWriter
	reader domain.BlobReader
}

// NewExporter creates an Exporter over the given store and blob backends.
func NewExporter(store domain.ArchiveExportStore, writer domain.BlobWriter, reader domain.BlobReader) *Exporter {
	return &Exporter{store: store, writer: writer, reader: reader}
}

// Export uploads all archive entries older than the cutoff to
// archive/snapshots/YYYY-MM/<cutoff-unix>.jsonl and then deletes them from
// the archive table. It returns the number of exported rows.
func (e *Exporter) Export(ctx context.Context, before time.Time) (int64, error) {
	entries, err := e.store.ListArchivedBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: export query: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(entries)
	if err != nil {
		return 0, fmt.Errorf("s3blob: export marshal: %w", err)
	}

	path := exportPath(before)
	if err := e.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: export upload: %w", err)
	}

	// Verify the object landed before touching the database.
	ok, err := e.reader.Exists(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("s3blob: export verify %s: %w", path, err)
	}
	if !ok {
		return 0, fmt.Errorf("s3blob: export verify %s: object missing after upload", path)
	}

	deleted, err := e.store.DeleteArchivedBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: export delete rows: %w", err)
	}
	if deleted != int64(len(entries)) {
		// New revisions may have aged past the cutoff between list and
		// delete; they are in the database but not in this object. The next
		// run picks them up only if still present, so surface the mismatch.
		return deleted, fmt.Errorf("s3blob: export %s: uploaded %d rows but deleted %d", path, len(entries), deleted)
	}

	return deleted, nil
}

// exportPath builds the object key for an export run, partitioned by the
// year-month of the cutoff.
//
//	archive/snapshots/2026-02/1770000000.jsonl
func exportPath(before time.Time) string {
	return fmt.Sprintf("archive/snapshots/%s/%d.jsonl", before.Format("2006-01"), before.Unix())
}

// marshalJSONL serialises records as newline-delimited JSON, one compact
// line per record.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
