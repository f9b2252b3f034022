package insights

import (
	"errors"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"social-insight/internal/batch"
	"social-insight/internal/export"
	"social-insight/internal/records"
	"social-insight/internal/shared/server/respond"
	"social-insight/internal/shared/telemetry"
)

const defaultHeartbeat = 15 * time.Second

// Handler wires HTTP handlers to the insights service.
type Handler struct {
	Svc *Service
	// SubmitLimit guards batch submission; nil disables it.
	SubmitLimit gin.HandlerFunc
	Heartbeat   time.Duration
	exports     *exportLimiter
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, submitLimit gin.HandlerFunc) *Handler {
	return &Handler{
		Svc:         svc,
		SubmitLimit: submitLimit,
		Heartbeat:   defaultHeartbeat,
		exports:     newExportLimiter(exportLimitWindow, nil),
	}
}

// RegisterRoutes attaches the record routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	submit := []gin.HandlerFunc{h.submitBatch}
	if h.SubmitLimit != nil {
		submit = append([]gin.HandlerFunc{h.SubmitLimit}, submit...)
	}
	rg.POST("/batches", submit...)
	rg.GET("/records", h.listRecords)
	rg.GET("/records/events", h.streamEvents)
	rg.DELETE("/records/:index", h.removeRecord)
	rg.GET("/progress", h.getProgress)
	rg.GET("/export", h.exportReport)
	rg.GET("/reports/*key", h.downloadReport)
	rg.GET("/samples", h.getSamples)
}

type submitRequest struct {
	Text string   `json:"text"`
	URLs []string `json:"urls"`
}

func (h *Handler) submitBatch(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.Text) == "" && len(req.URLs) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "text or urls is required", []map[string]string{
			{"field": "text", "issue": "required"},
		})
		return
	}

	var (
		batchID string
		recs    []records.Record
		err     error
	)
	if len(req.URLs) > 0 {
		batchID, recs, err = h.Svc.SubmitURLs(c.Request.Context(), req.URLs)
	} else {
		batchID, recs, err = h.Svc.SubmitText(c.Request.Context(), req.Text)
	}
	if err != nil {
		switch {
		case errors.Is(err, batch.ErrNoURLs):
			respond.Error(c, http.StatusBadRequest, "validation_error", "no valid links found", []map[string]string{
				{"field": "urls", "issue": "no_valid_urls"},
			})
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to submit batch", nil)
		}
		return
	}

	c.Set("batchId", batchID)
	c.Set("statusTransition", "->pending")
	respond.JSON(c, http.StatusAccepted, gin.H{
		"batchId": batchID,
		"records": recs,
	})
}

func (h *Handler) listRecords(c *gin.Context) {
	respond.JSON(c, http.StatusOK, gin.H{
		"records":  h.Svc.Snapshot(),
		"progress": h.Svc.Progress(),
	})
}

func (h *Handler) getProgress(c *gin.Context) {
	respond.JSON(c, http.StatusOK, h.Svc.Progress())
}

func (h *Handler) removeRecord(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "index must be an integer", nil)
		return
	}
	if _, err := h.Svc.Remove(c.Request.Context(), index); err != nil {
		switch {
		case errors.Is(err, records.ErrIndexOutOfRange):
			respond.Error(c, http.StatusNotFound, "not_found", "record not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to remove record", nil)
		}
		return
	}
	respond.NoContent(c)
}

// exportReport refuses unavailable exports before the limiter so only produced files count
// against the window.
func (h *Handler) exportReport(c *gin.Context) {
	if err := h.Svc.ExportAvailable(c.Request.Context()); err != nil {
		h.exportFailed(c, err)
		return
	}
	if !h.exports.Allow(c.ClientIP()) {
		retry := h.exports.RetryAfterSeconds()
		c.Header("Retry-After", strconv.Itoa(retry))
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", "export requested too often", gin.H{
			"retryAfterMs": retry * 1000,
		})
		return
	}
	rep, err := h.Svc.ExportCompleted(c.Request.Context())
	if err != nil {
		h.exportFailed(c, err)
		return
	}
	if rep.ArchiveKey != "" {
		c.Header("X-Archive-Key", rep.ArchiveKey)
	}
	respond.Attachment(c, rep.FileName, rep.ContentType, rep.Data)
}

func (h *Handler) exportFailed(c *gin.Context, err error) {
	switch {
	case errors.Is(err, export.ErrUnavailable):
		respond.Error(c, http.StatusConflict, "export_unavailable", export.Notice(err), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to export report", nil)
	}
}

// downloadReport streams a previously archived report by the key from X-Archive-Key.
func (h *Handler) downloadReport(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid report key", nil)
		return
	}
	rc, err := h.Svc.OpenReport(c.Request.Context(), key)
	if err != nil {
		switch {
		case errors.Is(err, ErrReportNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "report not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to open report", nil)
		}
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, export.ContentType, rc, map[string]string{
		"Content-Disposition": `attachment; filename="` + path.Base(key) + `"`,
	})
}

func (h *Handler) getSamples(c *gin.Context) {
	samples := h.Svc.Samples()
	respond.JSON(c, http.StatusOK, gin.H{
		"urls": samples,
		"text": strings.Join(samples, "\n"),
	})
}

// streamEvents sends a "snapshot" event, then one "change" event per store mutation. When the
// subscriber falls behind and events were dropped a fresh snapshot is sent instead.
func (h *Handler) streamEvents(c *gin.Context) {
	events, cancel := h.Svc.Subscribe(64)
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	recs, last := h.Svc.SnapshotWithSeq()
	c.SSEvent("snapshot", gin.H{"seq": last, "records": recs, "progress": h.Svc.Progress()})
	c.Writer.Flush()

	heartbeat := h.Heartbeat
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			if ev.Seq <= last {
				return true
			}
			if ev.Seq > last+1 {
				recs, seq := h.Svc.SnapshotWithSeq()
				last = seq
				telemetry.Debug("records.stream_resync", map[string]any{
					"request_id": telemetry.RequestIDFromContext(ctx),
					"seq":        seq,
				})
				c.SSEvent("snapshot", gin.H{"seq": seq, "records": recs, "progress": h.Svc.Progress()})
				return true
			}
			last = ev.Seq
			c.SSEvent("change", gin.H{"event": ev, "progress": h.Svc.Progress()})
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"ts": time.Now().UTC()})
			return true
		}
	})
}
