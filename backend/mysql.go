package backend

import (
	_ "github.com/go-sql-driver/mysql"

	"github.com/guileen/dbpool/pool"
)

func init() {
	Register("mysql", func() pool.Backend { return SQLDriver{Driver: "mysql"} })
}
