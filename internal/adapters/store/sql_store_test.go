package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/TYPOWERS/fermprofile/internal/domain"
)

func testProfile() *domain.Profile {
	start := time.Date(2025, 7, 24, 23, 6, 15, 0, time.UTC)
	return &domain.Profile{
		ID:          uuid.MustParse("8a1f0f3e-6f1e-4a86-9c55-0a3e1b2c3d4e"),
		Parameter:   "Temperature",
		SourceFile:  "Temperature_SP.csv",
		ProcessType: "Temperature",
		RunStart:    &start,
		Segments: []domain.Segment{
			domain.Constant{Setpoint: 30, DurationHours: 5},
			domain.Ramp{StartValue: 30, EndValue: 37, DurationHours: 2},
		},
		CreatedAt: start.Add(200 * time.Hour),
	}
}

const wantSegments = `[{"type":"constant","setpoint":30,"duration":5},{"type":"ramp","start_setpoint":30,"end_setpoint":37,"duration":2}]`

func TestSQLStoreWriteProfilesPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	s := NewSQLStore(db, DriverPostgres, "setpoint_profiles")
	p := testProfile()

	expectedQuery := regexp.QuoteMeta("INSERT INTO setpoint_profiles (id, parameter, source_file, process_type, run_start, run_end, segments, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8) ON CONFLICT (id) DO NOTHING")
	mock.ExpectExec(expectedQuery).
		WithArgs(p.ID.String(), "Temperature", "Temperature_SP.csv", "Temperature",
			sqlmock.AnyArg(), sqlmock.AnyArg(), wantSegments, p.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := s.WriteProfiles(context.Background(), []*domain.Profile{p}); err != nil {
		t.Fatalf("write profiles: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSQLStoreWriteProfilesSQLitePlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	s := NewSQLStore(db, DriverSQLite, "profiles")
	expectedQuery := regexp.QuoteMeta("VALUES (?,?,?,?,?,?,?,?),(?,?,?,?,?,?,?,?) ON CONFLICT (id) DO NOTHING")
	mock.ExpectExec(expectedQuery).WillReturnResult(sqlmock.NewResult(2, 2))

	a, b := testProfile(), testProfile()
	b.ID = uuid.New()
	if err := s.WriteProfiles(context.Background(), []*domain.Profile{a, b}); err != nil {
		t.Fatalf("write profiles: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSQLStoreWriteProfilesEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	s := NewSQLStore(db, DriverPostgres, "setpoint_profiles")
	if err := s.WriteProfiles(context.Background(), nil); err != nil {
		t.Fatalf("expected nil error for empty batch, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSQLStoreGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	s := NewSQLStore(db, DriverPostgres, "setpoint_profiles")
	p := testProfile()

	rows := sqlmock.NewRows([]string{"id", "parameter", "source_file", "process_type", "run_start", "run_end", "segments", "created_at"}).
		AddRow(p.ID.String(), p.Parameter, p.SourceFile, p.ProcessType, *p.RunStart, nil, []byte(wantSegments), p.CreatedAt)
	mock.ExpectQuery(regexp.QuoteMeta("FROM setpoint_profiles WHERE id = $1")).
		WithArgs(p.ID.String()).
		WillReturnRows(rows)

	got, err := s.Get(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != p.ID || got.RunStart == nil || got.RunEnd != nil {
		t.Fatalf("unexpected profile %+v", got)
	}
	if len(got.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(got.Segments))
	}
	if r, ok := got.Segments[1].(domain.Ramp); !ok || r.EndValue != 37 {
		t.Fatalf("unexpected second segment %+v", got.Segments[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSQLStoreGetMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	s := NewSQLStore(db, DriverSQLite, "profiles")
	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE id = ?")).WillReturnError(sql.ErrNoRows)

	if _, err := s.Get(context.Background(), uuid.New()); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestSQLStoreEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS setpoint_profiles")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := NewSQLStore(db, DriverPostgres, "setpoint_profiles").EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSQLStoreName(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	if got := NewSQLStore(db, DriverSQLite, "profiles").Name(); got != "sql:sqlite" {
		t.Fatalf("expected sql:sqlite, got %s", got)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open("oracle", "dsn", "profiles"); err == nil {
		t.Fatalf("expected unknown driver to fail")
	}
}

func TestSQLStoreList(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	s := NewSQLStore(db, DriverPostgres, "setpoint_profiles")
	p := testProfile()
	rows := sqlmock.NewRows([]string{"id", "parameter", "source_file", "process_type", "run_start", "run_end", "segments", "created_at"}).
		AddRow(p.ID.String(), p.Parameter, p.SourceFile, p.ProcessType, *p.RunStart, nil, []byte(wantSegments), p.CreatedAt)
	mock.ExpectQuery(regexp.QuoteMeta("FROM setpoint_profiles ORDER BY created_at DESC LIMIT $1")).
		WithArgs(50).
		WillReturnRows(rows)

	got, err := s.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != p.ID || len(got[0].Segments) != 2 {
		t.Fatalf("unexpected listing %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
