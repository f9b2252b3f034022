package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-insight/internal/bootstrap"
	"social-insight/internal/export"
	"social-insight/internal/llm"
	"social-insight/internal/shared/config"
	localstore "social-insight/internal/shared/storage/object/local"
	"social-insight/internal/shared/telemetry"
)

func TestMain(m *testing.M) {
	telemetry.Configure(io.Discard, "error")
	os.Exit(m.Run())
}

func TestCollectURLs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "links.txt")
	require.NoError(t, os.WriteFile(path, []byte("https://a.com, junk\nwww.b.com\n"), 0o644))

	urls, err := collectURLs(&options{file: path, sample: true}, []string{"https://c.com", "nope"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://www.youtube.com/@MrBeast",
		"https://www.instagram.com/nasa/",
		"https://www.tiktok.com/@khaby.lame",
		"https://a.com",
		"www.b.com",
		"https://c.com",
	}, urls)

	_, err = collectURLs(&options{}, []string{"not-a-link"})
	assert.Error(t, err)

	_, err = collectURLs(&options{file: filepath.Join(dir, "missing.txt")}, nil)
	assert.Error(t, err)
}

func newTestApp(t *testing.T, client llm.Client) (*bootstrap.App, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Defaults()
	app := bootstrap.Assemble(cfg, client, localstore.NewPlain(dir))
	app.Insights.Namespace = ""
	return app, dir
}

func TestRunBatchWritesReport(t *testing.T) {
	app, dir := newTestApp(t, llm.ClientFunc(func(ctx context.Context, input llm.ProfileInput) (json.RawMessage, error) {
		return json.RawMessage(`{"accountName":"NASA","followerCount":"97M","contentKeywords":"space","avgViewsRecent":"2M","genderRatio":"Unknown","genderReasoning":""}`), nil
	}))

	var out bytes.Buffer
	require.NoError(t, runBatch(context.Background(), &out, app, []string{"https://www.instagram.com/nasa/"}))

	assert.Contains(t, out.String(), "completed")
	assert.Contains(t, out.String(), "NASA")
	assert.Contains(t, out.String(), "wrote 1 row(s)")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "social_analysis_report_"))
}

func TestRunBatchAllFailedPrintsNotice(t *testing.T) {
	app, dir := newTestApp(t, llm.ClientFunc(func(ctx context.Context, input llm.ProfileInput) (json.RawMessage, error) {
		return nil, errors.New("quota exceeded")
	}))

	var out bytes.Buffer
	require.NoError(t, runBatch(context.Background(), &out, app, []string{"https://a.com"}))
	assert.Contains(t, out.String(), export.NoticeNoRows)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRootCommandRequiresLinks(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "none")
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--out", t.TempDir()})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no links given")
}
