package health

import (
	"time"

	"social-insight/internal/batch"
)

// Status is the payload served by the health endpoint.
type Status struct {
	OK          bool           `json:"ok"`
	LLMProvider string         `json:"llmProvider"`
	LLMReady    bool           `json:"llmReady"`
	ObjectStore string         `json:"objectStore"`
	Records     int            `json:"records"`
	Progress    batch.Progress `json:"progress"`
	Time        time.Time      `json:"time"`
}

// Service encapsulates health-related checks.
type Service struct {
	LLMProvider string
	LLMReady    bool
	ObjectStore string
	Records     func() int
	Progress    func() batch.Progress
	Now         func() time.Time
}

// NewService constructs a new health service.
func NewService(provider string, llmReady bool, objectStore string, records func() int, progress func() batch.Progress) *Service {
	return &Service{
		LLMProvider: provider,
		LLMReady:    llmReady,
		ObjectStore: objectStore,
		Records:     records,
		Progress:    progress,
		Now:         time.Now,
	}
}

// Status reports process liveness plus the analysis pipeline state. The process is healthy
// without a model; LLMReady tells callers whether analyses can succeed.
func (s *Service) Status() Status {
	if s == nil {
		return Status{OK: true, Time: time.Now().UTC()}
	}
	st := Status{
		OK:          true,
		LLMProvider: s.LLMProvider,
		LLMReady:    s.LLMReady,
		ObjectStore: s.ObjectStore,
	}
	if s.Records != nil {
		st.Records = s.Records()
	}
	if s.Progress != nil {
		st.Progress = s.Progress()
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	st.Time = now().UTC()
	return st
}
