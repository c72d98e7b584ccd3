package r25live

import (
	"github.com/goliatone/go-r25live/core"
	sqlstore "github.com/goliatone/go-r25live/store/sql"
	"github.com/uptrace/bun"
)

// WithBunDB persists settings and the session token in db. The schema comes
// from the migrations package.
func WithBunDB(db *bun.DB, opts ...sqlstore.FactoryOption) Option {
	return core.Compose(
		core.WithPersistenceClient(db),
		core.WithRepositoryFactory(sqlstore.NewRepositoryFactory(opts...)),
	)
}
