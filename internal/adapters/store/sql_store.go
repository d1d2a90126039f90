package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/TYPOWERS/fermprofile/internal/domain"
	"github.com/TYPOWERS/fermprofile/internal/ports"
	"github.com/TYPOWERS/fermprofile/internal/profile"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var ErrProfileNotFound = errors.New("profile not found")

const columns = "id, parameter, source_file, process_type, run_start, run_end, segments, created_at"

// SQLStore persists finished profiles, one row per profile, with the segments
// stored in the external record format.
type SQLStore struct {
	db     *sql.DB
	driver string
	table  string
}

var _ ports.ProfileSink = (*SQLStore)(nil)

// Open connects with the named driver ("postgres" or "sqlite").
func Open(driver, dsn, table string) (*SQLStore, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// A single writer avoids SQLITE_BUSY between pooled connections.
		db.SetMaxOpenConns(1)
	}
	return NewSQLStore(db, driver, table), nil
}

func NewSQLStore(db *sql.DB, driver, table string) *SQLStore {
	return &SQLStore{db: db, driver: driver, table: table}
}

func (s *SQLStore) Name() string { return "sql:" + s.driver }

func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) placeholder(n int) string {
	if s.driver == DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// EnsureSchema creates the profile table when it does not exist.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	segType, idType := "TEXT", "TEXT"
	if s.driver == DriverPostgres {
		segType, idType = "JSONB", "UUID"
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id %s PRIMARY KEY,
	parameter TEXT NOT NULL,
	source_file TEXT NOT NULL,
	process_type TEXT NOT NULL,
	run_start TIMESTAMP NULL,
	run_end TIMESTAMP NULL,
	segments %s NOT NULL,
	created_at TIMESTAMP NOT NULL
)`, s.table, idType, segType)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}
	return nil
}

// WriteProfiles inserts the batch in one statement. Profiles already stored
// under the same id are left alone.
func (s *SQLStore) WriteProfiles(ctx context.Context, profiles []*domain.Profile) error {
	if len(profiles) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(s.table)
	b.WriteString(" (" + columns + ") VALUES ")

	args := make([]any, 0, len(profiles)*8)
	for i, p := range profiles {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(")
		for j := 0; j < 8; j++ {
			if j > 0 {
				b.WriteString(",")
			}
			b.WriteString(s.placeholder(len(args) + j + 1))
		}
		b.WriteString(")")

		segs, err := json.Marshal(profile.Records(p.Segments))
		if err != nil {
			return fmt.Errorf("marshal segments: %w", err)
		}
		args = append(args,
			p.ID.String(),
			p.Parameter,
			p.SourceFile,
			p.ProcessType,
			nullTime(p.RunStart),
			nullTime(p.RunEnd),
			string(segs),
			p.CreatedAt,
		)
	}

	b.WriteString(" ON CONFLICT (id) DO NOTHING")

	_, err := s.db.ExecContext(ctx, b.String(), args...)
	return err
}

// Get loads one profile by id.
func (s *SQLStore) Get(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	query := "SELECT " + columns + " FROM " + s.table + " WHERE id = " + s.placeholder(1)
	row := s.db.QueryRowContext(ctx, query, id.String())
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	return p, err
}

// List returns the most recent profiles, newest first.
func (s *SQLStore) List(ctx context.Context, limit int) ([]*domain.Profile, error) {
	if limit <= 0 {
		limit = 50
	}
	query := "SELECT " + columns + " FROM " + s.table + " ORDER BY created_at DESC LIMIT " + s.placeholder(1)
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(sc scanner) (*domain.Profile, error) {
	var (
		p          domain.Profile
		id         string
		start, end sql.NullTime
		segs       []byte
	)
	if err := sc.Scan(&id, &p.Parameter, &p.SourceFile, &p.ProcessType, &start, &end, &segs, &p.CreatedAt); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("profile id %q: %w", id, err)
	}
	p.ID = parsed
	if start.Valid {
		t := start.Time.UTC()
		p.RunStart = &t
	}
	if end.Valid {
		t := end.Time.UTC()
		p.RunEnd = &t
	}

	var records []profile.Record
	if err := json.Unmarshal(segs, &records); err != nil {
		return nil, fmt.Errorf("decode segments of %s: %w", id, err)
	}
	if p.Segments, err = profile.Segments(records); err != nil {
		return nil, fmt.Errorf("segments of %s: %w", id, err)
	}
	return &p, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
