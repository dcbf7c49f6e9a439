package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/cityai/internal/dbx"
	"github.com/dmitrijs2005/cityai/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/cityai/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DB handle or a transaction,
// so a service can run several of them inside one dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
