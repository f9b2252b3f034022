// Package insights is the view layer over the record store: submission, removal, export and
// change streaming.
package insights

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"

	"social-insight/internal/batch"
	"social-insight/internal/export"
	"social-insight/internal/linkinput"
	"social-insight/internal/records"
	"social-insight/internal/shared/metrics"
	"social-insight/internal/shared/storage/object"
	"social-insight/internal/shared/telemetry"
)

// ReportNamespace is where produced reports are archived in the object store.
const ReportNamespace = "reports"

// Service coordinates the store, the orchestrator and the exporter.
type Service struct {
	Store    *records.Store
	Batches  *batch.Orchestrator
	Exporter *export.Exporter
	Archive  object.ObjectStore
	// Namespace is the archive key prefix for reports.
	Namespace string
}

// NewService constructs a Service. archive may be nil to skip report archiving.
func NewService(store *records.Store, batches *batch.Orchestrator, exporter *export.Exporter, archive object.ObjectStore) *Service {
	return &Service{Store: store, Batches: batches, Exporter: exporter, Archive: archive, Namespace: ReportNamespace}
}

// SubmitText parses pasted text into links and submits them as one batch.
func (s *Service) SubmitText(ctx context.Context, text string) (string, []records.Record, error) {
	return s.submit(ctx, linkinput.Parse(text))
}

// SubmitURLs submits an already split list, dropping entries that are not links.
func (s *Service) SubmitURLs(ctx context.Context, urls []string) (string, []records.Record, error) {
	return s.submit(ctx, linkinput.Clean(urls))
}

func (s *Service) submit(ctx context.Context, urls []string) (string, []records.Record, error) {
	if len(urls) == 0 {
		return "", nil, batch.ErrNoURLs
	}
	if s.Batches == nil {
		return "", nil, errors.New("batch orchestrator not configured")
	}
	return s.Batches.Submit(ctx, urls)
}

// Remove deletes the record at index.
func (s *Service) Remove(ctx context.Context, index int) (records.Record, error) {
	rec, err := s.Store.Remove(index)
	if err != nil {
		return rec, err
	}
	metrics.IncRecordRemoved()
	telemetry.Info("record.removed", map[string]any{
		"request_id": telemetry.RequestIDFromContext(ctx),
		"record_id":  rec.ID,
		"batch_id":   rec.BatchID,
		"index":      index,
		"status":     rec.Status,
	})
	return rec, nil
}

// ExportAvailable returns an export.ErrUnavailable error when an export would be refused.
func (s *Service) ExportAvailable(ctx context.Context) error {
	err := s.Exporter.Check(s.Store.Completed())
	if err != nil {
		s.logRejected(ctx, err)
	}
	return err
}

// ExportCompleted builds the report for completed records and archives a copy. Archive
// failures are logged and do not fail the export.
func (s *Service) ExportCompleted(ctx context.Context) (export.Report, error) {
	rep, err := s.Exporter.Build(s.Store.Completed())
	if err != nil {
		if errors.Is(err, export.ErrUnavailable) {
			s.logRejected(ctx, err)
		}
		return export.Report{}, err
	}
	metrics.IncExport()

	if s.Archive != nil {
		key, size, aerr := s.Archive.Save(ctx, s.Namespace, rep.FileName, rep.ContentType, bytes.NewReader(rep.Data))
		if aerr != nil {
			telemetry.Error("export.archive_failed", map[string]any{
				"request_id": telemetry.RequestIDFromContext(ctx),
				"file_name":  rep.FileName,
				"error":      aerr,
			})
		} else {
			rep.ArchiveKey = key
			telemetry.Info("export.archived", map[string]any{
				"request_id":  telemetry.RequestIDFromContext(ctx),
				"storage_key": key,
				"size_bytes":  size,
			})
		}
	}
	telemetry.Info("export.completed", map[string]any{
		"request_id": telemetry.RequestIDFromContext(ctx),
		"file_name":  rep.FileName,
		"rows":       rep.Rows,
	})
	return rep, nil
}

func (s *Service) logRejected(ctx context.Context, err error) {
	metrics.IncExportRejected()
	telemetry.Info("export.rejected", map[string]any{
		"request_id": telemetry.RequestIDFromContext(ctx),
		"notice":     export.Notice(err),
	})
}

// ErrReportNotFound is returned when an archived report does not exist or archiving is off.
var ErrReportNotFound = errors.New("report not found")

// OpenReport streams an archived report by its storage key. The caller closes the reader.
func (s *Service) OpenReport(ctx context.Context, key string) (io.ReadCloser, error) {
	if s.Archive == nil {
		return nil, ErrReportNotFound
	}
	rc, err := s.Archive.Open(ctx, key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return rc, nil
}

// Snapshot returns the ordered records.
func (s *Service) Snapshot() []records.Record {
	return s.Store.Snapshot()
}

// SnapshotWithSeq returns the records with the sequence of the last event they include.
func (s *Service) SnapshotWithSeq() ([]records.Record, uint64) {
	return s.Store.SnapshotWithSeq()
}

// Progress returns the batch counters.
func (s *Service) Progress() batch.Progress {
	if s.Batches == nil {
		return batch.Progress{}
	}
	return s.Batches.Progress()
}

// Subscribe registers for store changes.
func (s *Service) Subscribe(buffer int) (<-chan records.Event, func()) {
	return s.Store.Subscribe(buffer)
}

// Samples returns the demo links.
func (s *Service) Samples() []string {
	return linkinput.Samples()
}
