// Package relay delivers payment request notifications from requesters to
// payers. The Relay owns validation and address normalisation; a Store
// owns persistence.
package relay

import (
	"context"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/derek2403/token2049/core"
	"github.com/derek2403/token2049/intent"
)

// Store persists notification records.
type Store interface {
	// Insert saves records as given. IDs and timestamps are already set.
	Insert(ctx context.Context, records []core.NotificationRecord) error

	// Get returns a record by id, or core.ErrNotFound.
	Get(ctx context.Context, id string) (*core.NotificationRecord, error)

	// Latest returns the newest pending record addressed to recipient, or
	// nil when there is none.
	Latest(ctx context.Context, recipient string) (*core.NotificationRecord, error)

	// Pending returns every pending record addressed to recipient, oldest first.
	Pending(ctx context.Context, recipient string) ([]core.NotificationRecord, error)

	// Delete removes a record and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)
}

// Relay publishes, fetches and retires notifications.
type Relay struct {
	store  Store
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Relay.
type Option func(*Relay)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Relay) {
		r.logger = l
	}
}

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Relay) {
		r.now = now
	}
}

// New creates a relay backed by store.
func New(store Store, opts ...Option) *Relay {
	r := &Relay{
		store:  store,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("relay")
	return r
}

// Normalize lowercases a wallet address for storage and lookup.
func Normalize(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// Publish stores records for their recipients and returns the assigned ids.
// Records without an id get one; every record starts pending.
func (r *Relay) Publish(ctx context.Context, records ...core.NotificationRecord) ([]string, error) {
	if len(records) == 0 {
		return nil, errors.Wrap(core.ErrValidation, "no notifications provided")
	}

	now := r.now().UTC()
	prepared := make([]core.NotificationRecord, 0, len(records))
	ids := make([]string, 0, len(records))
	for i, rec := range records {
		rec.From = Normalize(rec.From)
		rec.To = Normalize(rec.To)
		if !intent.IsAddress(rec.To) {
			return nil, errors.Wrapf(core.ErrValidation, "notification %d: invalid recipient %q", i, rec.To)
		}
		if rec.From != "" && !intent.IsAddress(rec.From) {
			return nil, errors.Wrapf(core.ErrValidation, "notification %d: invalid requester %q", i, rec.From)
		}
		if _, ok := intent.ParseAmount(rec.Amount); !ok {
			return nil, errors.Wrapf(core.ErrValidation, "notification %d: invalid amount %q", i, rec.Amount)
		}
		if rec.ID == "" {
			rec.ID = shortuuid.New()
		}
		rec.Status = core.NotificationPending
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		prepared = append(prepared, rec)
		ids = append(ids, rec.ID)
	}

	if err := r.store.Insert(ctx, prepared); err != nil {
		return nil, storeErr(err, "insert notifications")
	}
	r.logger.Info("notifications published",
		zap.Int("count", len(prepared)),
		zap.Strings("ids", ids))
	return ids, nil
}

// Get returns a single notification by id.
func (r *Relay) Get(ctx context.Context, id string) (*core.NotificationRecord, error) {
	rec, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err, "get notification")
	}
	return rec, nil
}

// FetchLatest returns the newest pending notification for recipient, or nil.
func (r *Relay) FetchLatest(ctx context.Context, recipient string) (*core.NotificationRecord, error) {
	recipient = Normalize(recipient)
	if !intent.IsAddress(recipient) {
		return nil, errors.Wrapf(core.ErrValidation, "invalid wallet address %q", recipient)
	}
	rec, err := r.store.Latest(ctx, recipient)
	if err != nil {
		return nil, storeErr(err, "fetch latest notification")
	}
	return rec, nil
}

// FetchPending returns every pending notification for recipient, oldest first.
func (r *Relay) FetchPending(ctx context.Context, recipient string) ([]core.NotificationRecord, error) {
	recipient = Normalize(recipient)
	if !intent.IsAddress(recipient) {
		return nil, errors.Wrapf(core.ErrValidation, "invalid wallet address %q", recipient)
	}
	recs, err := r.store.Pending(ctx, recipient)
	if err != nil {
		return nil, storeErr(err, "fetch pending notifications")
	}
	return recs, nil
}

// Dismiss removes a notification the payer declined.
func (r *Relay) Dismiss(ctx context.Context, id string) (bool, error) {
	return r.remove(ctx, id, core.NotificationDismissed)
}

// Settle removes a notification after it has been paid.
func (r *Relay) Settle(ctx context.Context, id string) (bool, error) {
	return r.remove(ctx, id, core.NotificationPaid)
}

func (r *Relay) remove(ctx context.Context, id string, reason core.NotificationStatus) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, errors.Wrap(core.ErrValidation, "notificationId required")
	}
	deleted, err := r.store.Delete(ctx, id)
	if err != nil {
		return false, storeErr(err, "delete notification")
	}
	r.logger.Info("notification removed",
		zap.String("id", id),
		zap.String("reason", string(reason)),
		zap.Bool("deleted", deleted))
	return deleted, nil
}

// storeErr tags store failures with core.ErrStoreFailure, leaving
// not-found and validation errors recognisable.
func storeErr(err error, msg string) error {
	if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrValidation) || errors.Is(err, core.ErrStoreFailure) {
		return errors.Wrap(err, msg)
	}
	return errors.Wrapf(core.ErrStoreFailure, "%s: %v", msg, err)
}
