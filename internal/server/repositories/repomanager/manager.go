package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/factfeed/internal/dbx"
	"github.com/dmitrijs2005/factfeed/internal/server/repositories/facts"
	"github.com/dmitrijs2005/factfeed/internal/server/repositories/users"
)

// RepositoryManager vends SQL repositories bound to a DBTX, so services can
// run them on the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Facts(db dbx.DBTX) facts.Repository
}
