package export

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"social-insight/internal/records"
)

func sampleRecords() []records.Record {
	return []records.Record{
		{
			URL: "https://www.youtube.com/@MrBeast", AccountName: "MrBeast", FollowerCount: "300M",
			ContentKeywords: "Non-Gaming, challenges", AvgViewsRecent: "120M", GenderRatio: "M 70% / F 30%",
			GenderReasoning: "challenge content skews male", Status: records.StatusCompleted,
		},
		{URL: "https://bad", Status: records.StatusError, ErrorMessage: records.FailedMessage},
		{
			URL: "https://www.instagram.com/nasa/", AccountName: "NASA", FollowerCount: "97M",
			ContentKeywords: "space", AvgViewsRecent: "2M", GenderRatio: "Unknown",
			Status: records.StatusCompleted,
		},
		{URL: "https://pending", Status: records.StatusPending},
	}
}

func TestFileNameUsesUTCDate(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	now := time.Date(2026, 1, 2, 3, 0, 0, 0, loc)
	assert.Equal(t, "social_analysis_report_2026-01-01.xlsx", FileName(now))
}

func TestRowsSelectsCompletedOnly(t *testing.T) {
	rows := Rows(sampleRecords())
	require.Len(t, rows, 2)
	assert.Equal(t, []string{
		"https://www.youtube.com/@MrBeast", "MrBeast", "300M", "Non-Gaming, challenges",
		"120M", "M 70% / F 30%", "challenge content skews male",
	}, rows[0])
	assert.Equal(t, "https://www.instagram.com/nasa/", rows[1][0])
	assert.Len(t, rows[1], len(Headers))
}

func TestBuildWritesWorkbook(t *testing.T) {
	e := New(ExcelWriter{})
	e.Now = func() time.Time { return time.Date(2026, 5, 6, 23, 0, 0, 0, time.UTC) }

	rep, err := e.Build(sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, "social_analysis_report_2026-05-06.xlsx", rep.FileName)
	assert.Equal(t, ContentType, rep.ContentType)
	assert.Equal(t, 2, rep.Rows)

	f, err := excelize.OpenReader(bytes.NewReader(rep.Data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Headers, rows[0])
	assert.Equal(t, "MrBeast", rows[1][1])
	assert.Equal(t, "NASA", rows[2][1])
}

func TestBuildWithoutWriter(t *testing.T) {
	e := New(nil)
	_, err := e.Build(sampleRecords())
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, NoticeWriterLoading, Notice(err))

	var nilExporter *Exporter
	_, err = nilExporter.Build(sampleRecords())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestBuildWithNoCompletedRows(t *testing.T) {
	w := &recordingWriter{}
	e := New(w)
	_, err := e.Build([]records.Record{{URL: "https://x", Status: records.StatusError}})
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, NoticeNoRows, Notice(err))
	assert.False(t, w.called, "nothing is written")
}

func TestCheckDoesNotWrite(t *testing.T) {
	w := &recordingWriter{}
	e := New(w)

	assert.NoError(t, e.Check(sampleRecords()))
	err := e.Check([]records.Record{{URL: "https://x", Status: records.StatusLoading}})
	assert.Equal(t, NoticeNoRows, Notice(err))
	assert.Equal(t, NoticeWriterLoading, Notice(New(nil).Check(sampleRecords())))
	assert.False(t, w.called)
}

func TestBuildPropagatesWriterError(t *testing.T) {
	e := New(&recordingWriter{err: errors.New("disk full")})
	_, err := e.Build(sampleRecords())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
	assert.Empty(t, Notice(err))
}

type recordingWriter struct {
	called bool
	err    error
}

func (w *recordingWriter) Write(_ io.Writer, _ string, _ []string, _ [][]string) error {
	w.called = true
	return w.err
}
