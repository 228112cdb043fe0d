// Package store persists budgets and spending entries in SQLite.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/thriftify/internal/model"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // register sqlite driver
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNotFound is returned when a budget lookup matches nothing.
var ErrNotFound = errors.New("store: not found")

// Spending is one stored spending entry.
type Spending struct {
	ID      string
	Date    string // YYYY-MM-DD
	Spent   decimal.Decimal
	Purpose string
}

// Store is the SQLite-backed budget store.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at dbPath and applies pending migrations.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	// m.Close would close db as well, so the migrator is left for the GC.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateBudget inserts a budget and returns it with its new id.
func (s *Store) CreateBudget(ctx context.Context, b model.NewBudget) (model.Budget, error) {
	created := model.Budget{
		ID:        uuid.NewString(),
		StartDate: b.StartDate,
		Duration:  b.Duration,
		Amount:    b.Amount,
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO budgets (id, start_date, duration, amount, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		created.ID, created.StartDate, created.Duration, created.Amount.String(), now(),
	)
	if err != nil {
		return model.Budget{}, fmt.Errorf("inserting budget: %w", err)
	}
	return created, nil
}

// GetBudget returns the budget with the given id.
func (s *Store) GetBudget(ctx context.Context, id string) (model.Budget, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, start_date, duration, amount FROM budgets WHERE id = ?", id)
	return scanBudget(row)
}

// LatestBudget returns the budget with the most recent start date.
func (s *Store) LatestBudget(ctx context.Context) (model.Budget, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, start_date, duration, amount FROM budgets ORDER BY start_date DESC, rowid DESC LIMIT 1")
	return scanBudget(row)
}

// ListBudgets returns every budget in creation order.
func (s *Store) ListBudgets(ctx context.Context) ([]model.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, start_date, duration, amount FROM budgets ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	budgets := []model.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// AddSpending inserts a spending entry and returns its id.
func (s *Store) AddSpending(ctx context.Context, sp model.NewSpending) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `INSERT INTO spending (id, date, spent, purpose, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, sp.Date, sp.Spent.String(), sp.Purpose, now(),
	)
	if err != nil {
		return "", fmt.Errorf("inserting spending: %w", err)
	}
	return id, nil
}

// SpendingBetween returns entries dated within [from, to], both inclusive,
// ordered by date and then insertion.
func (s *Store) SpendingBetween(ctx context.Context, from, to time.Time) ([]Spending, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, date, spent, purpose FROM spending
		WHERE date >= ? AND date <= ? ORDER BY date, rowid`,
		from.Format(model.DateLayout), to.Format(model.DateLayout),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Spending
	for rows.Next() {
		var sp Spending
		var spent string
		if err := rows.Scan(&sp.ID, &sp.Date, &spent, &sp.Purpose); err != nil {
			return nil, err
		}
		if sp.Spent, err = decimal.NewFromString(spent); err != nil {
			return nil, fmt.Errorf("spending %s: bad amount %q: %w", sp.ID, spent, err)
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

// BudgetCount returns the number of stored budgets.
func (s *Store) BudgetCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM budgets").Scan(&count)
	return count, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBudget(row scanner) (model.Budget, error) {
	var b model.Budget
	var amount string
	if err := row.Scan(&b.ID, &b.StartDate, &b.Duration, &amount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Budget{}, ErrNotFound
		}
		return model.Budget{}, err
	}
	var err error
	if b.Amount, err = decimal.NewFromString(amount); err != nil {
		return model.Budget{}, fmt.Errorf("budget %s: bad amount %q: %w", b.ID, amount, err)
	}
	return b, nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
