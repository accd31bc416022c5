package repomanager

import (
	"context"
	"database/sql"

	"github.com/kw-00/gossip/internal/dbx"
	"github.com/kw-00/gossip/internal/server/repositories/refreshtokens"
	"github.com/kw-00/gossip/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so a service can run
// several repositories against one transaction, and owns schema migrations.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
