package backend

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/guileen/dbpool/pool"
)

// SQLDriver is a backend adapter over a database/sql driver. Each handle
// pins exactly one *sql.Conn so connection lifecycle is owned by dbpool
// rather than by database/sql's internal pool.
type SQLDriver struct {
	Driver string
}

// sqlHandle keeps the pinned connection together with its single-conn DB
// so both can be torn down on Disconnect.
type sqlHandle struct {
	db   *sql.DB
	conn *sql.Conn
}

// Connect implements pool.Backend
func (d SQLDriver) Connect(ctx context.Context, connString string) (pool.Handle, error) {
	db, err := sql.Open(d.Driver, connString)
	if err != nil {
		return nil, fmt.Errorf("%s open: %w", d.Driver, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%s connect: %w", d.Driver, err)
	}
	return &sqlHandle{db: db, conn: conn}, nil
}

// Disconnect implements pool.Backend
func (d SQLDriver) Disconnect(ctx context.Context, h pool.Handle) error {
	sh, err := d.handle(h)
	if err != nil {
		return err
	}
	connErr := sh.conn.Close()
	if dbErr := sh.db.Close(); connErr == nil {
		connErr = dbErr
	}
	return connErr
}

// Ping implements pool.Backend
func (d SQLDriver) Ping(ctx context.Context, h pool.Handle) error {
	sh, err := d.handle(h)
	if err != nil {
		return err
	}
	return sh.conn.PingContext(ctx)
}

// Execute implements pool.Backend
func (d SQLDriver) Execute(ctx context.Context, h pool.Handle, query string) error {
	sh, err := d.handle(h)
	if err != nil {
		return err
	}
	_, err = sh.conn.ExecContext(ctx, query)
	return err
}

func (d SQLDriver) handle(h pool.Handle) (*sqlHandle, error) {
	sh, ok := h.(*sqlHandle)
	if !ok {
		return nil, fmt.Errorf("handle is %T, not a %s handle", h, d.Driver)
	}
	return sh, nil
}
