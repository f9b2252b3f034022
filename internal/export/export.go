// Package export renders completed analyses into the downloadable spreadsheet report.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"social-insight/internal/records"
)

const (
	SheetName   = "Social_Analysis"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	NoticeWriterLoading = "Export library is loading, please try again in a moment."
	NoticeNoRows        = "No completed analysis data to export."
)

// Headers are the report columns, in order.
var Headers = []string{
	"Platform URL",
	"Account Name",
	"Followers",
	"Content Keywords/Style",
	"Avg Views (Last 5)",
	"Gender Ratio",
	"Gender Analysis Reasoning",
}

// ErrUnavailable matches every refused export. Nothing is written when it is returned.
var ErrUnavailable = errors.New("export unavailable")

// UnavailableError carries the notice shown to the user.
type UnavailableError struct {
	Notice string
}

func (e *UnavailableError) Error() string { return e.Notice }

func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

// Notice extracts the user notice from an export error, if any.
func Notice(err error) string {
	var ue *UnavailableError
	if errors.As(err, &ue) {
		return ue.Notice
	}
	return ""
}

// Report is one produced spreadsheet. ArchiveKey is set once the report has been stored.
type Report struct {
	FileName    string
	ContentType string
	Data        []byte
	Rows        int
	ArchiveKey  string
}

// Exporter builds reports with the configured sheet writer.
type Exporter struct {
	Writer Writer
	Now    func() time.Time
}

// New constructs an Exporter. A nil writer leaves the exporter unavailable.
func New(w Writer) *Exporter {
	return &Exporter{Writer: w, Now: time.Now}
}

// FileName is the report name for the UTC date of now.
func FileName(now time.Time) string {
	return "social_analysis_report_" + now.UTC().Format("2006-01-02") + ".xlsx"
}

// Rows maps completed records to report rows, keeping store order. Other statuses are skipped.
func Rows(recs []records.Record) [][]string {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		if r.Status != records.StatusCompleted {
			continue
		}
		rows = append(rows, []string{
			r.URL,
			r.AccountName,
			r.FollowerCount,
			r.ContentKeywords,
			r.AvgViewsRecent,
			r.GenderRatio,
			r.GenderReasoning,
		})
	}
	return rows
}

// Check reports whether a report can be built from recs without rendering it.
func (e *Exporter) Check(recs []records.Record) error {
	if e == nil || e.Writer == nil {
		return &UnavailableError{Notice: NoticeWriterLoading}
	}
	for _, r := range recs {
		if r.Status == records.StatusCompleted {
			return nil
		}
	}
	return &UnavailableError{Notice: NoticeNoRows}
}

// Build produces the report for recs.
func (e *Exporter) Build(recs []records.Record) (Report, error) {
	if err := e.Check(recs); err != nil {
		return Report{}, err
	}
	rows := Rows(recs)

	var buf bytes.Buffer
	if err := e.Writer.Write(&buf, SheetName, Headers, rows); err != nil {
		return Report{}, fmt.Errorf("write sheet: %w", err)
	}
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	return Report{
		FileName:    FileName(now()),
		ContentType: ContentType,
		Data:        buf.Bytes(),
		Rows:        len(rows),
	}, nil
}
