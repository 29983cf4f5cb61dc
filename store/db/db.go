// Package db selects a store driver by name.
package db

import (
	"context"

	"github.com/pkg/errors"

	"github.com/derek2403/token2049/store"
	"github.com/derek2403/token2049/store/db/mysql"
	"github.com/derek2403/token2049/store/db/postgres"
	"github.com/derek2403/token2049/store/db/sqlite"
)

// NewDBDriver opens the named driver ("sqlite", "postgres" or "mysql") and
// brings its schema up to date.
func NewDBDriver(ctx context.Context, driver, dsn string) (store.Driver, error) {
	var (
		d   store.Driver
		err error
	)
	switch driver {
	case "sqlite", "":
		d, err = sqlite.NewDB(dsn)
	case "postgres":
		d, err = postgres.NewDB(dsn)
	case "mysql":
		d, err = mysql.NewDB(dsn)
	default:
		return nil, errors.Errorf("unknown database driver %q", driver)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", driver)
	}
	if err := d.Migrate(ctx); err != nil {
		d.Close()
		return nil, errors.Wrapf(err, "migrate %s", driver)
	}
	return d, nil
}
