package session

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-portal-session/internal/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const DefaultPollInterval = 30 * time.Second

// StatusChecker is the account status endpoint.
type StatusChecker interface {
	Status(ctx context.Context, src oauth2.TokenSource) (bool, error)
}

// RevocationTick is the outcome of one status poll.
type RevocationTick struct {
	Active bool
	// Reason is ReasonNone unless the tick calls for invalidation.
	Reason Reason
	// Err holds a swallowed failure; the tick was inconclusive.
	Err error
	At  time.Time
}

// Inconclusive ticks neither confirm nor revoke the session.
func (t RevocationTick) Inconclusive() bool {
	return t.Err != nil && t.Reason == ReasonNone
}

// RevocationMonitor polls the account status while a session is
// authenticated. At most one poll loop runs at a time.
type RevocationMonitor struct {
	checker   StatusChecker
	interval  time.Duration
	onRevoked func(generation uint64, reason Reason)
	nowTime   func() time.Time

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	lastTick *RevocationTick
}

func NewRevocationMonitor(checker StatusChecker, interval time.Duration, onRevoked func(generation uint64, reason Reason)) *RevocationMonitor {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &RevocationMonitor{
		checker:   checker,
		interval:  interval,
		onRevoked: onRevoked,
		nowTime:   time.Now,
	}
}

// Start begins polling for the session identified by generation, replacing
// any loop already running. src supplies that session's token.
func (rm *RevocationMonitor) Start(generation uint64, src oauth2.TokenSource) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.cancel != nil {
		rm.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	rm.cancel = cancel
	rm.done = done

	go rm.loop(ctx, done, generation, src)
}

// Stop cancels the running loop, if any. It does not wait for the loop to
// exit; use Done for that.
func (rm *RevocationMonitor) Stop() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.cancel != nil {
		rm.cancel()
		rm.cancel = nil
	}
}

// Running reports whether a loop has been started and not stopped.
func (rm *RevocationMonitor) Running() bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.cancel != nil
}

// Done is closed when the most recently started loop has exited. It is nil
// if no loop was ever started.
func (rm *RevocationMonitor) Done() <-chan struct{} {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.done
}

func (rm *RevocationMonitor) LastTick() (RevocationTick, bool) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.lastTick == nil {
		return RevocationTick{}, false
	}
	return *rm.lastTick, true
}

func (rm *RevocationMonitor) loop(ctx context.Context, done chan struct{}, generation uint64, src oauth2.TokenSource) {
	defer close(done)

	ticker := time.NewTicker(rm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		tick := rm.Check(ctx, src)
		if ctx.Err() != nil {
			return
		}

		rm.mu.Lock()
		rm.lastTick = &tick
		rm.mu.Unlock()

		if tick.Reason != ReasonNone {
			log.Info().Stringer("reason", tick.Reason).Msg("session revoked by status poll")
			rm.onRevoked(generation, tick.Reason)
			return
		}
		if tick.Err != nil {
			log.Debug().Err(tick.Err).Msg("status poll inconclusive, retrying next tick")
		}
	}
}

// Check performs a single poll. Transport failures and unexpected responses
// are inconclusive; inactive, 403 and 401 are not.
func (rm *RevocationMonitor) Check(ctx context.Context, src oauth2.TokenSource) RevocationTick {
	active, err := rm.checker.Status(ctx, src)
	tick := RevocationTick{Active: active, Err: err, At: rm.nowTime()}

	switch {
	case err == nil && !active:
		tick.Reason = ReasonBlocked
	case errors.Is(err, errors.ErrForbidden):
		tick.Reason = ReasonBlocked
	case errors.Is(err, errors.ErrUnauthorized):
		tick.Reason = ReasonExpired
	}
	return tick
}
