package wiki

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

// PersistenceConfig holds store options
type PersistenceConfig interface {
	GetDSN() string
	GetDebug() bool
	GetMaxOpenConns() int
}

// DialectFromDSN picks postgres for postgres:// and postgresql:// DSNs and
// sqlite for everything else.
func DialectFromDSN(dsn string) dialect.Name {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return dialect.PG
	}
	return dialect.SQLite
}

// OpenDB opens the connection pool described by cfg. The caller owns the
// returned handle and must Close it.
func OpenDB(cfg PersistenceConfig, logger Logger) (*bun.DB, error) {
	logger = resolveLogger(logger)
	dsn := cfg.GetDSN()

	var db *bun.DB
	switch DialectFromDSN(dsn) {
	case dialect.PG:
		sqldb, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		sqldb, err := sql.Open(sqliteshim.ShimName, SQLiteDSN(dsn))
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// sqlite allows one writer at a time; a single connection queues
		// concurrent writes in the pool instead of failing with SQLITE_BUSY.
		// Every new connection to :memory: is also a new empty database.
		sqldb.SetMaxOpenConns(1)
		if n := cfg.GetMaxOpenConns(); n > 0 && !isMemoryDSN(dsn) {
			sqldb.SetMaxOpenConns(n)
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	}

	if n := cfg.GetMaxOpenConns(); n > 0 && db.Dialect().Name() == dialect.PG {
		db.SetMaxOpenConns(n)
	}

	if cfg.GetDebug() {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	logger.Info("persistence opened", "dialect", db.Dialect().Name().String())
	return db, nil
}

// sqliteBusyTimeout is how long a sqlite connection waits on a locked
// database, in milliseconds
const sqliteBusyTimeout = 5000

// SQLiteDSN adds a busy timeout and immediate write transactions to dsn
// unless it already sets them. Both keep concurrent writers, including other
// processes on the same file, waiting instead of failing with SQLITE_BUSY.
func SQLiteDSN(dsn string) string {
	var params []string
	if !strings.Contains(dsn, "busy_timeout") {
		params = append(params, fmt.Sprintf("_pragma=busy_timeout(%d)", sqliteBusyTimeout))
	}
	if !strings.Contains(dsn, "_txlock") {
		params = append(params, "_txlock=immediate")
	}
	if len(params) == 0 {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate applies the embedded migrations for the dialect of db
func Migrate(ctx context.Context, db *bun.DB) error {
	dir, gooseDialect := "sqlite", "sqlite3"
	if db.Dialect().Name() == dialect.PG {
		dir, gooseDialect = "postgres", "postgres"
	}

	fsys, err := fs.Sub(migrationsFS, path.Join("data/sql/migrations", dir))
	if err != nil {
		return fmt.Errorf("migrations for %s: %w", dir, err)
	}

	goose.SetBaseFS(fsys)
	if err := goose.SetDialect(gooseDialect); err != nil {
		return err
	}

	if err := gooseUpContext(ctx, db.DB, "."); err != nil {
		return fmt.Errorf("migrate %s: %w", dir, err)
	}
	return nil
}
