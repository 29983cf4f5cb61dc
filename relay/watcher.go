package relay

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/derek2403/token2049/core"
)

// DefaultPollInterval is how often a Watcher checks for new requests.
const DefaultPollInterval = 5 * time.Second

// PendingSource lists pending notifications for a wallet. *Relay satisfies it.
type PendingSource interface {
	FetchPending(ctx context.Context, recipient string) ([]core.NotificationRecord, error)
}

// Watcher polls for payment requests addressed to the connected wallet and
// surfaces each one once. The set of surfaced ids survives reconnects of
// the same wallet and is cleared when the wallet changes.
type Watcher struct {
	source   PendingSource
	interval time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	wallet string
	shown  map[string]struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithInterval overrides the poll interval.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.interval = d
	}
}

// WithWatcherLogger sets the logger.
func WithWatcherLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = l
	}
}

// NewWatcher creates a watcher reading from source.
func NewWatcher(source PendingSource, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		source:   source,
		interval: DefaultPollInterval,
		logger:   zap.NewNop(),
		shown:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named("watcher")
	return w
}

// Watch polls for wallet until ctx is cancelled, calling deliver for every
// pending notification not yet surfaced. It polls once immediately.
// Fetch failures are logged and retried on the next tick.
func (w *Watcher) Watch(ctx context.Context, wallet string, deliver func(core.NotificationRecord)) {
	wallet = Normalize(wallet)
	w.connect(wallet)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.poll(ctx, wallet, deliver)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Forget drops id from the surfaced set so it may be shown again.
func (w *Watcher) Forget(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.shown, id)
}

func (w *Watcher) connect(wallet string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.wallet != wallet {
		w.wallet = wallet
		w.shown = make(map[string]struct{})
	}
}

func (w *Watcher) poll(ctx context.Context, wallet string, deliver func(core.NotificationRecord)) {
	records, err := w.source.FetchPending(ctx, wallet)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Warn("fetch notifications failed", zap.String("wallet", wallet), zap.Error(err))
		}
		return
	}
	for _, rec := range records {
		if Normalize(rec.To) != wallet || rec.Status != core.NotificationPending {
			continue
		}
		if !w.markShown(rec.ID) {
			continue
		}
		deliver(rec)
	}
}

func (w *Watcher) markShown(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.shown[id]; ok {
		return false
	}
	w.shown[id] = struct{}{}
	return true
}
