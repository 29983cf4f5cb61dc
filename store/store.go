// Package store persists payment request notifications in a SQL database.
// Drivers for sqlite, postgres and mysql live under store/db.
package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/derek2403/token2049/core"
)

// FindNotification filters ListNotifications. Nil fields match everything.
type FindNotification struct {
	UID       *string
	Recipient *string
	Status    *core.NotificationStatus

	// Limit caps the number of rows; zero means no limit.
	Limit int
	// NewestFirst reverses the default oldest-first order.
	NewestFirst bool
}

// Driver is implemented by each database backend.
type Driver interface {
	Migrate(ctx context.Context) error
	CreateNotifications(ctx context.Context, list []*core.NotificationRecord) error
	ListNotifications(ctx context.Context, find *FindNotification) ([]*core.NotificationRecord, error)
	DeleteNotification(ctx context.Context, uid string) (bool, error)
	Close() error
}

// Store adapts a Driver to the relay's storage contract.
type Store struct {
	driver Driver
}

// New wraps driver.
func New(driver Driver) *Store {
	return &Store{driver: driver}
}

// Insert saves records.
func (s *Store) Insert(ctx context.Context, records []core.NotificationRecord) error {
	list := make([]*core.NotificationRecord, len(records))
	for i := range records {
		list[i] = &records[i]
	}
	return s.driver.CreateNotifications(ctx, list)
}

// Get returns the record with the given id or core.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*core.NotificationRecord, error) {
	list, err := s.driver.ListNotifications(ctx, &FindNotification{UID: &id, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errors.Wrapf(core.ErrNotFound, "notification %s", id)
	}
	return list[0], nil
}

// Latest returns the newest pending record for recipient, or nil.
func (s *Store) Latest(ctx context.Context, recipient string) (*core.NotificationRecord, error) {
	status := core.NotificationPending
	list, err := s.driver.ListNotifications(ctx, &FindNotification{
		Recipient:   &recipient,
		Status:      &status,
		Limit:       1,
		NewestFirst: true,
	})
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

// Pending returns pending records for recipient, oldest first.
func (s *Store) Pending(ctx context.Context, recipient string) ([]core.NotificationRecord, error) {
	status := core.NotificationPending
	list, err := s.driver.ListNotifications(ctx, &FindNotification{Recipient: &recipient, Status: &status})
	if err != nil {
		return nil, err
	}
	out := make([]core.NotificationRecord, len(list))
	for i, rec := range list {
		out[i] = *rec
	}
	return out, nil
}

// Delete removes a record and reports whether it existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	return s.driver.DeleteNotification(ctx, id)
}

// Close releases the database.
func (s *Store) Close() error {
	return s.driver.Close()
}
