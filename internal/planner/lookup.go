package planner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tardus/office-planner/internal/domain"
)

// LookupResult is a completed address resolution.
type LookupResult struct {
	Generation uint64                  `json:"generation"`
	Address    string                  `json:"address"`
	Resolution domain.OfficeResolution `json:"resolution"`
}

// AddressLookup resolves a stream of address edits to the nearest office.
// Submissions are debounced, and only the result for the most recent
// submission is ever published.
type AddressLookup struct {
	geocoder domain.Geocoder
	delay    time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	onResult func(LookupResult)

	// pubMu orders onResult calls so a superseded result is never
	// delivered after a newer one.
	pubMu sync.Mutex

	mu       sync.Mutex
	gen      uint64
	timer    clockwork.Timer
	cancel   context.CancelFunc
	latest   LookupResult
	hasValue bool
	closed   bool
}

// NewAddressLookup creates a lookup that waits delay after the last Submit
// before resolving. onResult may be nil.
func NewAddressLookup(geocoder domain.Geocoder, delay time.Duration, clock clockwork.Clock, logger *slog.Logger, onResult func(LookupResult)) *AddressLookup {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &AddressLookup{
		geocoder: geocoder,
		delay:    delay,
		clock:    clock,
		logger:   logger,
		onResult: onResult,
	}
}

// Submit schedules resolution of address, superseding any pending or
// in-flight lookup. It returns the generation assigned to this submission.
func (l *AddressLookup) Submit(ctx context.Context, address string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.gen++
	gen := l.gen
	l.stopLocked()
	if l.closed {
		return gen
	}

	l.timer = l.clock.AfterFunc(l.delay, func() { l.run(ctx, gen, address) })
	return gen
}

func (l *AddressLookup) run(parent context.Context, gen uint64, address string) {
	l.mu.Lock()
	if gen != l.gen || l.closed {
		l.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(parent)
	l.cancel = cancel
	l.mu.Unlock()
	defer cancel()

	res := domain.ResolveNearestOffice(ctx, address, l.geocoder, l.logger)

	l.mu.Lock()
	if gen != l.gen || ctx.Err() != nil {
		l.mu.Unlock()
		l.logger.Debug("discarding stale address lookup", "generation", gen, "address", address)
		return
	}
	result := LookupResult{Generation: gen, Address: address, Resolution: res}
	l.latest = result
	l.hasValue = true
	l.cancel = nil
	l.mu.Unlock()

	if l.onResult == nil {
		return
	}
	l.pubMu.Lock()
	defer l.pubMu.Unlock()
	if cur, _ := l.Latest(); cur.Generation != gen {
		return
	}
	l.onResult(result)
}

// Latest returns the most recently published result.
func (l *AddressLookup) Latest() (LookupResult, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.latest, l.hasValue
}

// Close cancels pending and in-flight work. Later submissions are ignored.
func (l *AddressLookup) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.stopLocked()
}

func (l *AddressLookup) stopLocked() {
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}
