// Package postgresql owns the bun connection and the helpers every repository
// shares: claim checks, required field validation, soft deletes and
// transactions carried in the context.
package postgresql

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"time"

	"attendance/workforce/foundation/web"
	"attendance/workforce/internal/auth"
	"attendance/workforce/internal/pkg/config"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

type Database struct {
	*bun.DB
}

type txKey struct{}

// NewDatabase opens the connection pool and verifies it with a ping.
func NewDatabase(cfg config.DB) (*Database, error) {
	connector := pgdriver.NewConnector(
		pgdriver.WithAddr(net.JoinHostPort(cfg.Host, cfg.Port)),
		pgdriver.WithUser(cfg.Username),
		pgdriver.WithPassword(cfg.Password),
		pgdriver.WithDatabase(cfg.Name),
		pgdriver.WithInsecure(cfg.DisableTLS),
		pgdriver.WithTimeout(5*time.Second),
	)

	sqldb := sql.OpenDB(connector)
	db := bun.NewDB(sqldb, pgdialect.New())

	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, errors.Wrap(err, "ping database")
	}

	return &Database{DB: db}, nil
}

// Querier returns the transaction stored in ctx, or the pool when there is none.
func (d Database) Querier(ctx context.Context) bun.IDB {
	if tx, ok := ctx.Value(txKey{}).(bun.Tx); ok {
		return tx
	}
	return d.DB
}

// RunInTx runs fn in a transaction. Repositories called with the context
// passed to fn join the transaction; nested calls reuse the outer one.
func (d Database) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(bun.Tx); ok {
		return fn(ctx)
	}

	return d.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// Savepoint runs fn inside a savepoint of the transaction carried by ctx.
// When fn fails only its own statements are rolled back and the outer
// transaction stays usable. Without a transaction fn runs directly.
func (d Database) Savepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, ok := ctx.Value(txKey{}).(bun.Tx)
	if !ok {
		return fn(ctx)
	}

	return tx.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, sp bun.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, sp))
	})
}

// CheckClaims returns the caller's claims. When roles are given the caller
// must hold one of them.
func (d Database) CheckClaims(ctx context.Context, roles ...string) (auth.Claims, error) {
	claims, err := auth.GetClaims(ctx)
	if err != nil {
		return auth.Claims{}, err
	}

	if len(roles) > 0 && !claims.Authorized(roles...) {
		return auth.Claims{}, web.NewRequestError(errors.New("attempted action is not allowed"), http.StatusForbidden)
	}

	return claims, nil
}

// ValidateStruct checks that the named fields of the request are set.
func (d Database) ValidateStruct(s interface{}, requiredFields ...string) error {
	return web.ValidateRequired(s, requiredFields...)
}

// DeleteRow soft deletes a tenant scoped row.
func (d Database) DeleteRow(ctx context.Context, table string, id, tenantID int) error {
	claims, err := d.CheckClaims(ctx)
	if err != nil {
		return err
	}

	res, err := d.Querier(ctx).NewUpdate().
		Table(table).
		Where("deleted_at IS NULL AND id = ? AND tenant_id = ?", id, tenantID).
		Set("deleted_at = ?", time.Now()).
		Set("deleted_by = ?", claims.UserId).
		Exec(ctx)
	if err != nil {
		return web.NewRequestError(errors.Wrapf(err, "deleting %s", table), http.StatusInternalServerError)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return web.NewRequestError(errors.Errorf("%s not found", table), http.StatusNotFound)
	}

	return nil
}
