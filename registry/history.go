package registry

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Outcome describes how a record left the registry.
type Outcome string

const (
	// OutcomeReleased means the cleanup handler ran successfully.
	OutcomeReleased Outcome = "released"
	// OutcomeFailed means the cleanup handler returned a failure; the
	// record was removed anyway.
	OutcomeFailed Outcome = "failed"
	// OutcomeCollected means the tracked object was garbage collected
	// before an explicit release; no handler could run.
	OutcomeCollected Outcome = "collected"
	// OutcomeSkipped means the record had no cleanup handler.
	OutcomeSkipped Outcome = "skipped"
)

// ReleaseInfo is one entry of the cleanup history.
type ReleaseInfo struct {
	ID          string
	Type        Type
	Group       Group
	Description string
	Outcome     Outcome
	Err         string
	ReleasedAt  time.Time
	Took        time.Duration
}

// newHistory builds the bounded release history. The LRU keeps the most
// recent releases and silently evicts the oldest.
func newHistory(size int) *lru.Cache[string, ReleaseInfo] {
	c, err := lru.New[string, ReleaseInfo](size)
	if err != nil {
		// Only reachable with size < 1, which the options guard against.
		panic(err)
	}
	return c
}

func (r *Registry) recordRelease(e *entry, outcome Outcome, took time.Duration, cause error) {
	info := ReleaseInfo{
		ID:          e.rec.ID,
		Type:        e.rec.Type,
		Group:       e.rec.Group,
		Description: e.rec.Description,
		Outcome:     outcome,
		ReleasedAt:  time.Now(),
		Took:        took,
	}
	if cause != nil {
		info.Err = cause.Error()
	}
	r.history.Add(info.ID, info)
}

// History returns the retained release records, oldest first. The history
// is diagnostic only; it is bounded and survives no longer than the
// registry itself.
func (r *Registry) History() []ReleaseInfo {
	return r.history.Values()
}
