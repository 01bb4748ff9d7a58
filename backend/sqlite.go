package backend

import (
	_ "github.com/mattn/go-sqlite3"

	"github.com/guileen/dbpool/pool"
)

func init() {
	Register("sqlite", func() pool.Backend { return SQLDriver{Driver: "sqlite3"} })
}
