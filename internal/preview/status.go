package preview

import (
	"sync"
	"time"

	"git.home.luguber.info/inful/extassets/internal/site"
)

// buildStatus tracks the outcome of the most recent build.
type buildStatus struct {
	mu        sync.RWMutex
	lastError error
	last      *site.Report // last successful build
	builds    int
}

func (bs *buildStatus) setError(err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = err
	bs.builds++
}

func (bs *buildStatus) setSuccess(r *site.Report) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = nil
	bs.last = r
	bs.builds++
}

func (bs *buildStatus) get() (last *site.Report, builds int, err error) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.last, bs.builds, bs.lastError
}

// HealthResponse is the /healthz payload after a successful build.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    float64   `json:"uptime"`
	Builds    int       `json:"builds"`
	RunID     string    `json:"run_id,omitempty"`
	Pages     int       `json:"pages"`
	Published int       `json:"published"`
}
