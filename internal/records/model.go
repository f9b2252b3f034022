package records

import (
	"time"

	"social-insight/internal/analyzer"
)

// Status is the lifecycle state of a Record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusLoading   Status = "loading"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// FailedMessage is the generic message attached to records whose analysis failed.
const FailedMessage = "Failed to analyze"

// Record is one submitted URL and its analysis.
type Record struct {
	ID              string    `json:"id"`
	BatchID         string    `json:"batchId"`
	URL             string    `json:"url"`
	AccountName     string    `json:"accountName"`
	FollowerCount   string    `json:"followerCount"`
	ContentKeywords string    `json:"contentKeywords"`
	AvgViewsRecent  string    `json:"avgViewsRecent"`
	GenderRatio     string    `json:"genderRatio"`
	GenderReasoning string    `json:"genderReasoning"`
	Status          Status    `json:"status"`
	ErrorMessage    string    `json:"errorMessage,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// NewPlaceholder returns a pending record with empty analysis fields.
func NewPlaceholder(id, batchID, url string, now time.Time) Record {
	return Record{
		ID:        id,
		BatchID:   batchID,
		URL:       url,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// canTransition encodes pending -> loading -> (completed | error).
func canTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusLoading
	case StatusLoading:
		return to == StatusCompleted || to == StatusError
	default:
		return false
	}
}

func (r *Record) merge(f analyzer.Fields) {
	r.AccountName = f.AccountName
	r.FollowerCount = f.FollowerCount
	r.ContentKeywords = f.ContentKeywords
	r.AvgViewsRecent = f.AvgViewsRecent
	r.GenderRatio = f.GenderRatio
	r.GenderReasoning = f.GenderReasoning
}
