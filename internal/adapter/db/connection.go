package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/AmimerNabil/achieveai/internal/config"
)

const (
	DialectMySQL  = "mysql"
	DialectSQLite = "sqlite"
)

//go:embed migrations
var migrations embed.FS

func ConnectDB(conf *config.Config) (*sqlx.DB, error) {
	params := conf.DbParams
	if params == "" {
		params = "parseTime=true&multiStatements=true"
	}

	dsn := fmt.Sprintf(
		"%s:%s@tcp(%s:%s)/%s?%s",
		conf.DbUser,
		conf.DbPassword,
		conf.DbHost,
		conf.DbPort,
		conf.DbName,
		params,
	)

	db, err := sqlx.Connect(DialectMySQL, dsn)
	if err != nil {
		return nil, err
	}

	return db, nil
}

// ConnectSQLite opens a SQLite database. ":memory:" is accepted; the pool is
// pinned to a single connection so every query sees the same database.
func ConnectSQLite(dsn string) (*sqlx.DB, error) {
	if !strings.Contains(dsn, "_time_format=") {
		separator := "?"
		if strings.Contains(dsn, "?") {
			separator = "&"
		}
		dsn += separator + "_time_format=sqlite"
	}

	db, err := sqlx.Connect(DialectSQLite, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// Migrate applies the embedded up migrations for the dialect in file order.
// Every migration is written to be idempotent.
func Migrate(ctx context.Context, db *sqlx.DB, dialect string) error {
	dir := path.Join("migrations", dialect)
	entries, err := fs.ReadDir(migrations, dir)
	if err != nil {
		return fmt.Errorf("read migrations for %s: %w", dialect, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := fs.ReadFile(migrations, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}
