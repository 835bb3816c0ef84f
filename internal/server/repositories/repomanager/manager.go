package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/safelocker/internal/dbx"
	"github.com/dmitrijs2005/safelocker/internal/server/repositories/codes"
	"github.com/dmitrijs2005/safelocker/internal/server/repositories/media"
	"github.com/dmitrijs2005/safelocker/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/safelocker/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can run
// several of them inside one transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Codes(db dbx.DBTX) codes.Repository
	Media(db dbx.DBTX) media.Repository
}
