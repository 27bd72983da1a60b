package postgresqltest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/cmlabs-hris/timepay-backend-go/internal/pkg/database"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// TestDatabaseSetup wraps a live database for integration tests.
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL and skips the test when it is unset.
func NewTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	if err := migrateUp(dsn); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db, err := database.NewPostgreSQLDB(context.Background(), dsn, database.PoolConfig{MaxConns: 4, MinConns: 1})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	setup := &TestDatabaseSetup{DB: db}
	t.Cleanup(setup.Close)
	return setup
}

// migrateUp applies the repository's migrations directory to dsn.
func migrateUp(dsn string) error {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return errors.New("cannot locate migrations directory")
	}
	dir := filepath.Join(filepath.Dir(filename), "..", "..", "..", "..", "migrations")

	m, err := migrate.New("file://"+filepath.ToSlash(dir), dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// TruncateAllTables removes all rows written by the tests.
func (s *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tables := []string{"payslips", "attendances", "employees"}

	for _, table := range tables {
		if _, err := s.DB.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}
	return nil
}

// CreateEmployee inserts an active employee and returns its id.
func (s *TestDatabaseSetup) CreateEmployee(ctx context.Context, code string, baseSalary string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
		INSERT INTO employees (id, employee_code, full_name, hire_date, employment_status, base_salary)
		VALUES (gen_random_uuid(), $1, $1, DATE '2024-01-01', 'active', $2::numeric)
		RETURNING id
	`, code, baseSalary).Scan(&id)
	return id, err
}

func (s *TestDatabaseSetup) Close() {
	s.DB.Close()
}
