package store

import (
	"context"
	"database/sql"
	"embed"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/utc"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/driver" // registers the "sqlite3" driver
	_ "github.com/ncruces/go-sqlite3/embed"  // bundles the sqlite wasm build

	"github.com/agentstation/featurereg/pkg/errors"
	"github.com/agentstation/featurereg/pkg/features"
)

//go:embed migrations
var migrationsFS embed.FS

type dialect struct {
	name       string
	driver     string
	migrations string
}

var (
	sqliteDialect   = dialect{name: DriverSQLite, driver: "sqlite3", migrations: "migrations/sqlite"}
	postgresDialect = dialect{name: DriverPostgres, driver: "pgx", migrations: "migrations/postgres"}
)

// rebind rewrites ? placeholders to $n for postgres.
func (d dialect) rebind(query string) string {
	if d.name != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d dialect) isUniqueViolation(err error) bool {
	if d.name == DriverPostgres {
		var pgErr *pgconn.PgError
		return stderrors.As(err, &pgErr) && pgErr.Code == "23505"
	}
	return stderrors.Is(err, sqlite3.CONSTRAINT_PRIMARYKEY) || stderrors.Is(err, sqlite3.CONSTRAINT_UNIQUE)
}

// SQL is a Store backed by database/sql.
type SQL struct {
	db      *sql.DB
	dialect dialect
}

// OpenSQLite opens (creating if needed) a SQLite database file. The DSN may
// be a plain path or a "file:" URI.
func OpenSQLite(ctx context.Context, dsn string) (*SQL, error) {
	if !strings.HasPrefix(dsn, "file:") {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.WrapIO("create", dir, err)
			}
		}
		dsn = "file:" + dsn + "?_pragma=foreign_keys(ON)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open(sqliteDialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return newSQL(ctx, db, sqliteDialect)
}

// OpenPostgres connects to PostgreSQL through the pgx stdlib driver.
func OpenPostgres(ctx context.Context, databaseURL string) (*SQL, error) {
	db, err := sql.Open(postgresDialect.driver, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(10)
	db.SetMaxOpenConns(20)
	return newSQL(ctx, db, postgresDialect)
}

func newSQL(ctx context.Context, db *sql.DB, d dialect) (*SQL, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.name, err)
	}
	s := &SQL{db: db, dialect: d}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate applies embedded *.up.sql files in name order, once each.
func (s *SQL) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY
		)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	entries, err := fs.ReadDir(migrationsFS, s.dialect.migrations)
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, version := range files {
		var applied int
		if err := s.db.QueryRowContext(ctx,
			s.dialect.rebind(`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`), version,
		).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", version, err)
		}
		if applied > 0 {
			continue
		}

		contents, err := migrationsFS.ReadFile(path.Join(s.dialect.migrations, version))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", version, err)
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration tx %s: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, string(contents)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("execute migration %s: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx,
			s.dialect.rebind(`INSERT INTO schema_migrations(version) VALUES(?)`), version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", version, err)
		}
	}
	return nil
}

const recordColumns = `id, feature_code, feature_name, module_code, route_path, description,
	source, created_at, created_by_name, review_status, reviewed_by, reviewed_at, review_notes`

// List returns every record ordered by creation time.
func (s *SQL) List(ctx context.Context) ([]features.FeatureRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM feature_records ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list feature records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []features.FeatureRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feature records: %w", err)
	}
	return out, nil
}

// Get returns one record.
func (s *SQL) Get(ctx context.Context, id string) (features.FeatureRecord, error) {
	row := s.db.QueryRowContext(ctx,
		s.dialect.rebind(`SELECT `+recordColumns+` FROM feature_records WHERE id = ?`), id)
	r, err := scanRecord(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return features.FeatureRecord{}, notFound(id)
	}
	return r, err
}

// Insert adds records in a single transaction.
func (s *SQL) Insert(ctx context.Context, records ...features.FeatureRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.dialect.rebind(`INSERT INTO feature_records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		if r.ID == "" {
			return errors.NewValidationError("id", r.ID, "cannot be empty")
		}
		status := statusOf(r)
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.FeatureCode, r.FeatureName,
			nullString(r.ModuleCode), nullString(r.RoutePath), nullString(r.Description),
			string(r.Source), timeArg(r.CreatedAt), nullString(r.CreatedByName),
			string(status), nullString(r.Review.ReviewedBy), nullTimeArg(r.Review.ReviewedAt),
			nullString(r.Review.Notes),
		); err != nil {
			if s.dialect.isUniqueViolation(err) {
				return alreadyExists(r.ID)
			}
			return fmt.Errorf("insert feature record %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// UpdateReview writes review fields with a compare-and-set on status.
func (s *SQL) UpdateReview(ctx context.Context, id string, update features.ReviewUpdate) error {
	query := `UPDATE feature_records
		SET review_status = ?, reviewed_by = ?, reviewed_at = ?, review_notes = ?
		WHERE id = ?`
	args := []any{
		string(update.Status), nullString(update.ReviewedBy), nullTimeArg(update.ReviewedAt),
		nullString(update.Notes), id,
	}
	if update.Expected != "" {
		query += ` AND review_status = ?`
		args = append(args, string(update.Expected))
	}

	res, err := s.db.ExecContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return fmt.Errorf("update review for %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("update review for %s: %w", id, err)
	} else if n == 1 {
		return nil
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return errors.NewTransitionError(string(statusOf(current)), string(update.Status))
}

// Delete removes a record permanently, with a compare-and-set on status
// when expected is set.
func (s *SQL) Delete(ctx context.Context, id string, expected features.ReviewStatus) error {
	query := `DELETE FROM feature_records WHERE id = ?`
	args := []any{id}
	if expected != "" {
		query += ` AND review_status = ?`
		args = append(args, string(expected))
	}

	res, err := s.db.ExecContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return fmt.Errorf("delete feature record %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete feature record %s: %w", id, err)
	}
	if n == 1 {
		return nil
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return errors.NewTransitionError(string(statusOf(current)), string(features.ReviewDeleted))
}

// Ping checks the database connection.
func (s *SQL) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQL) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (features.FeatureRecord, error) {
	var r features.FeatureRecord
	var module, route, desc, createdBy, by, notes sql.NullString
	var source, status string
	var reviewedAt nullTime
	if err := row.Scan(
		&r.ID, &r.FeatureCode, &r.FeatureName, &module, &route, &desc,
		&source, &r.CreatedAt, &createdBy, &status, &by, &reviewedAt, &notes,
	); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("scan feature record: %w", err)
	}
	r.ModuleCode = module.String
	r.RoutePath = route.String
	r.Description = desc.String
	r.CreatedByName = createdBy.String
	r.Source = features.ParseSource(source)
	r.Review = features.Review{
		Status:     features.ReviewStatus(status),
		ReviewedBy: by.String,
		ReviewedAt: reviewedAt.t,
		Notes:      notes.String,
	}
	return r, nil
}

// nullTime scans a nullable timestamp column into a *utc.Time.
type nullTime struct {
	t *utc.Time
}

func (n *nullTime) Scan(value any) error {
	if value == nil {
		n.t = nil
		return nil
	}
	var t utc.Time
	if err := t.Scan(value); err != nil {
		return err
	}
	n.t = &t
	return nil
}

func timeArg(t utc.Time) any {
	return t.UTC()
}

func nullTimeArg(t *utc.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// DB exposes the underlying handle for maintenance tasks.
func (s *SQL) DB() *sql.DB {
	return s.db
}
