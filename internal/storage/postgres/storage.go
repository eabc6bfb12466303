// Package postgres implements the storage interface on PostgreSQL through
// the pgx database/sql driver. The schema is managed by goose migrations
// embedded in the binary.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mcoot/lostfound/internal/model"
	"github.com/mcoot/lostfound/internal/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Constraint names as created by the migrations
const (
	accountsPrimaryKey = "accounts_pkey"
	accountsEmailKey   = "accounts_email_key"
	itemsPrimaryKey    = "items_pkey"
	itemsReporterKey   = "items_reporter_id_fkey"
)

// Storage is a PostgreSQL-backed implementation of the storage interface
type Storage struct {
	db *sql.DB
}

// Open connects to the database at dsn, verifies the connection and applies
// any pending migrations.
func Open(ctx context.Context, dsn string) (*Storage, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, classify(err)
	}

	s := New(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already opened database handle
func New(db *sql.DB) *Storage {
	return &Storage{db: db}
}

// Migrate applies all pending migrations
func (s *Storage) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Ping checks the connection
func (s *Storage) Ping(ctx context.Context) error {
	return classify(s.db.PingContext(ctx))
}

// Close closes the database handle
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// classify maps driver errors onto model errors. Constraint violations are
// matched by constraint name so that an item collision is never reported as
// a duplicate account. Other server errors keep their identity; anything
// else means the server could not be reached.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == uniqueViolation && (pgErr.ConstraintName == accountsEmailKey || pgErr.ConstraintName == accountsPrimaryKey):
			return model.ErrDuplicateAccount
		case pgErr.Code == uniqueViolation && pgErr.ConstraintName == itemsPrimaryKey:
			return model.ErrDuplicateItem
		case pgErr.Code == foreignKeyViolation && pgErr.ConstraintName == itemsReporterKey:
			return model.ErrUnknownReporter
		}
		return fmt.Errorf("postgres: %w", err)
	}
	return fmt.Errorf("%w: %w", model.ErrStoreUnavailable, err)
}

// Account operations

func (s *Storage) CreateAccount(ctx context.Context, account *model.Account) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, name, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		string(account.ID), account.Email, account.Name, account.PasswordHash, account.CreatedAt, account.UpdatedAt,
	)
	return classify(err)
}

const accountColumns = `id, email, name, password_hash, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*model.Account, error) {
	var (
		account model.Account
		id      string
	)
	if err := row.Scan(&id, &account.Email, &account.Name, &account.PasswordHash, &account.CreatedAt, &account.UpdatedAt); err != nil {
		return nil, err
	}
	account.ID = model.AccountID(id)
	return &account, nil
}

func (s *Storage) GetAccount(ctx context.Context, id model.AccountID) (*model.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, string(id))
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrAccountNotFound
		}
		return nil, classify(err)
	}
	return account, nil
}

func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrAccountNotFound
		}
		return nil, classify(err)
	}
	return account, nil
}

func (s *Storage) ListAccounts(ctx context.Context) ([]*model.Account, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at, id`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	accounts := []*model.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, classify(err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return accounts, nil
}

func (s *Storage) UpdatePasswordHash(ctx context.Context, id model.AccountID, hash string, updatedAt time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		string(id), hash, updatedAt,
	)
	if err != nil {
		return classify(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if n == 0 {
		return model.ErrAccountNotFound
	}
	return nil
}

// Item operations

func (s *Storage) CreateItem(ctx context.Context, item *model.Item) error {
	var lat, lng sql.NullFloat64
	if item.Coordinates != nil {
		lat = sql.NullFloat64{Float64: item.Coordinates.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: item.Coordinates.Lng, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO items (id, title, description, location, status, reporter_id, image_url, lat, lng, reported_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		string(item.ID), item.Title, item.Description, item.Location, string(item.Status),
		string(item.ReporterID), item.ImageURL, lat, lng, item.ReportedAt,
	)
	return classify(err)
}

const itemColumns = `id, title, description, location, status, reporter_id, image_url, lat, lng, reported_at`

func scanItem(row interface{ Scan(...any) error }) (*model.Item, error) {
	var (
		item                   model.Item
		id, status, reporterID string
		lat, lng               sql.NullFloat64
	)
	if err := row.Scan(&id, &item.Title, &item.Description, &item.Location, &status,
		&reporterID, &item.ImageURL, &lat, &lng, &item.ReportedAt); err != nil {
		return nil, err
	}
	item.ID = model.ItemID(id)
	item.Status = model.ItemStatus(status)
	item.ReporterID = model.AccountID(reporterID)
	if lat.Valid && lng.Valid {
		item.Coordinates = &model.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
	}
	return &item, nil
}

func (s *Storage) GetItem(ctx context.Context, id model.ItemID) (*model.Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, string(id))
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrItemNotFound
		}
		return nil, classify(err)
	}
	return item, nil
}

func (s *Storage) ListItems(ctx context.Context, status model.ItemStatus) ([]*model.Item, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if status == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM items ORDER BY reported_at DESC, id DESC`)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+itemColumns+` FROM items WHERE status = $1 ORDER BY reported_at DESC, id DESC`,
			string(status),
		)
	}
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	items := []*model.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, classify(err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return items, nil
}
