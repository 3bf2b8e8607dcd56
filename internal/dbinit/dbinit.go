package dbinit

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

//go:embed migrations
var migrationsFS embed.FS

const lockKey = int64(0x746f6f6c) // 'tool'

// EnsureDatabaseAndMigrate creates targetDB through adminConn when missing and
// applies the embedded migrations in filename order under an advisory lock,
// so several server replicas can start at once.
func EnsureDatabaseAndMigrate(ctx context.Context, adminConn, targetDB, owner string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	if err := ensureDatabase(ctx, adminConn, targetDB, owner); err != nil {
		return err
	}

	targetConn, err := replaceDBName(adminConn, targetDB)
	if err != nil {
		return err
	}
	conn, err := pgx.Connect(ctx, targetConn)
	if err != nil {
		return fmt.Errorf("target connect: %w", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, `select pg_advisory_lock($1)`, lockKey); err != nil {
		return fmt.Errorf("advisory lock: %w", err)
	}
	defer conn.Exec(context.Background(), `select pg_advisory_unlock($1)`, lockKey)

	files, err := migrationFiles(migrationsFS)
	if err != nil {
		return err
	}
	return apply(ctx, conn, files)
}

func ensureDatabase(ctx context.Context, adminConn, targetDB, owner string) error {
	admin, err := pgx.Connect(ctx, adminConn)
	if err != nil {
		return fmt.Errorf("admin connect: %w", err)
	}
	defer admin.Close(ctx)

	var exists bool
	if err := admin.QueryRow(ctx,
		`select exists (select 1 from pg_database where datname = $1)`, targetDB,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check database existence: %w", err)
	}
	if exists {
		return nil
	}

	stmt := `create database ` + pgx.Identifier{targetDB}.Sanitize()
	if owner != "" {
		stmt += ` with owner ` + pgx.Identifier{owner}.Sanitize()
	}
	if _, err := admin.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("create database %q: %w", targetDB, err)
	}
	return nil
}

func migrationFiles(fsys fs.ReadDirFS) ([]string, error) {
	entries, err := fsys.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func apply(ctx context.Context, conn *pgx.Conn, files []string) error {
	if _, err := conn.Exec(ctx, `
		create table if not exists schema_migrations (
			filename text primary key,
			applied_at timestamptz not null default now()
		)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	for _, f := range files {
		var done bool
		if err := conn.QueryRow(ctx, `select exists (select 1 from schema_migrations where filename=$1)`, f).Scan(&done); err != nil {
			return fmt.Errorf("check applied %s: %w", f, err)
		}
		if done {
			continue
		}
		sqlBytes, err := migrationsFS.ReadFile("migrations/" + f)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}
		err = pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(sqlBytes)); err != nil {
				return fmt.Errorf("exec: %w", err)
			}
			if _, err := tx.Exec(ctx, `insert into schema_migrations (filename) values ($1)`, f); err != nil {
				return fmt.Errorf("record: %w", err)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("migration %s: %w", f, err)
		}
	}
	return nil
}

// replaceDBName swaps the database segment of postgres://.../<db>?...
func replaceDBName(conn, db string) (string, error) {
	i := strings.LastIndex(conn, "/")
	if i < 0 {
		return "", errors.New("unexpected conn string format; expected '/' before db name")
	}
	j := strings.Index(conn[i+1:], "?")
	if j == -1 {
		return conn[:i+1] + db, nil
	}
	return conn[:i+1] + db + conn[i+1+j:], nil
}
