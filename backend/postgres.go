package backend

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/guileen/dbpool/pool"
)

func init() {
	Register("postgres", func() pool.Backend { return Postgres{} })
}

// Postgres is a backend adapter over a dedicated pgx connection per
// handle. Pooling stays entirely in dbpool; pgx's own pool is not used.
type Postgres struct{}

// Connect implements pool.Backend
func (Postgres) Connect(ctx context.Context, connString string) (pool.Handle, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("pgx connect: %w", err)
	}
	return conn, nil
}

// Disconnect implements pool.Backend
func (Postgres) Disconnect(ctx context.Context, h pool.Handle) error {
	conn, err := pgxConn(h)
	if err != nil {
		return err
	}
	return conn.Close(ctx)
}

// Ping implements pool.Backend
func (Postgres) Ping(ctx context.Context, h pool.Handle) error {
	conn, err := pgxConn(h)
	if err != nil {
		return err
	}
	return conn.Ping(ctx)
}

// Execute implements pool.Backend
func (Postgres) Execute(ctx context.Context, h pool.Handle, query string) error {
	conn, err := pgxConn(h)
	if err != nil {
		return err
	}
	_, err = conn.Exec(ctx, query)
	return err
}

func pgxConn(h pool.Handle) (*pgx.Conn, error) {
	conn, ok := h.(*pgx.Conn)
	if !ok {
		return nil, fmt.Errorf("handle is %T, not *pgx.Conn", h)
	}
	return conn, nil
}
