package remote

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/existflow/protask/internal/aggregate"
	"github.com/existflow/protask/internal/logger"
	"github.com/existflow/protask/internal/store"
)

// DefaultRefreshInterval is how often the provider is polled
const DefaultRefreshInterval = 30 * time.Second

// Refresher polls a provider and reports snapshots whose content changed
type Refresher struct {
	reader   store.Reader
	ownerID  string
	interval time.Duration

	mu       sync.Mutex
	last     string
	onChange func(aggregate.Snapshot)

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// NewRefresher creates a stopped refresher. Call Start to begin polling.
func NewRefresher(r store.Reader, ownerID string, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Refresher{
		reader:   r,
		ownerID:  ownerID,
		interval: interval,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// SetOnChange sets the callback invoked with each changed snapshot
func (r *Refresher) SetOnChange(callback func(aggregate.Snapshot)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = callback
}

// Seed records a snapshot the caller already shows, so the next poll
// only reports a change if the content differs from it
func (r *Refresher) Seed(s aggregate.Snapshot) {
	sum := fingerprint(s)
	r.mu.Lock()
	r.last = sum
	r.mu.Unlock()
}

// Start begins background polling
func (r *Refresher) Start() {
	go r.pollLoop()
}

func (r *Refresher) pollLoop() {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), r.interval)
			if _, err := r.Poll(ctx); err != nil {
				logger.Warn("Refresh failed", logger.F("error", err))
			}
			cancel()
		case <-r.stopCh:
			return
		}
	}
}

// Poll loads a snapshot now and fires the callback if its content differs
// from the last one seen. Without a Seed the first successful poll counts
// as a change.
func (r *Refresher) Poll(ctx context.Context) (bool, error) {
	snap, err := store.LoadSnapshot(ctx, r.reader, r.ownerID)
	if err != nil {
		return false, err
	}

	sum := fingerprint(snap)

	r.mu.Lock()
	changed := sum != r.last
	r.last = sum
	callback := r.onChange
	r.mu.Unlock()

	if changed {
		logger.Debug("Snapshot changed", logger.F("tasks", len(snap.Tasks)))
		if callback != nil {
			callback(snap)
		}
	}
	return changed, nil
}

// Stop ends polling. It is safe to call more than once.
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// Wait blocks until a started loop has exited
func (r *Refresher) Wait() {
	<-r.done
}

func fingerprint(s aggregate.Snapshot) string {
	s.LoadedAt = time.Time{}
	data, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
