// Package sqlstore implements the directory store against a relational
// database. Accounts are rows in the accounts table, attributes are rows in
// the account_attributes side table. Two drivers are supported: postgres for
// deployments and sqlite for development and embedded use.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/castlegateit/memberdir/pkg/store"
)

// SQLStore implements store.DirectoryStore over database/sql via sqlx. The
// query builder emits ? placeholders; the store rebinds them to the
// driver's bind style before execution.
type SQLStore struct {
	db     *sqlx.DB
	driver string
}

// NewPostgres opens a postgres-backed store and verifies the connection.
func NewPostgres(cfg store.Config) (*SQLStore, error) {
	db, err := sqlx.Open("postgres", cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MinConns)
	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &SQLStore{db: db, driver: "postgres"}, nil
}

// NewSQLite opens a sqlite-backed store and creates the schema if needed.
func NewSQLite(path string) (*SQLStore, error) {
	if path == "" {
		path = ":memory:"
	}

	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	s := &SQLStore{db: db, driver: "sqlite3"}
	if err := s.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// NewFromDB wraps an existing connection. Used by tests.
func NewFromDB(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: sqlx.NewDb(db, driver), driver: driver}
}

// Close closes the underlying connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// HealthCheck pings the database.
func (s *SQLStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSchema creates the accounts and account_attributes tables when they
// do not exist.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	id := "BIGSERIAL PRIMARY KEY"
	if s.driver == "sqlite3" {
		id = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}

	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS accounts (
			id %s,
			login TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL DEFAULT ''
		)`, id),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS account_attributes (
			id %s,
			account_id BIGINT NOT NULL,
			attr_key TEXT NOT NULL,
			attr_value TEXT NOT NULL
		)`, id),
		`CREATE INDEX IF NOT EXISTS account_attributes_lookup
			ON account_attributes (account_id, attr_key)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// rebind converts ? placeholders to the driver's bind style.
func (s *SQLStore) rebind(query string) string {
	if s.driver == "postgres" {
		return sqlx.Rebind(sqlx.DOLLAR, query)
	}
	return query
}

// Search executes a search query and returns its rows. Column sets are
// dynamic, so rows are scanned into maps; []byte column values are
// normalized to strings.
func (s *SQLStore) Search(ctx context.Context, query store.Query) ([]store.Row, error) {
	rows, err := s.db.QueryxContext(ctx, s.rebind(query.SQL), query.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer rows.Close()

	results := make([]store.Row, 0)
	for rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("failed to scan search row: %w", err)
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		results = append(results, store.Row(row))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search rows: %w", err)
	}

	return results, nil
}

// AccountByID returns one account with its attributes.
func (s *SQLStore) AccountByID(ctx context.Context, id int64) (*store.Account, error) {
	return s.account(ctx, `SELECT id, login, email, display_name FROM accounts WHERE id = ?`, id)
}

// AccountByEmail returns one account by email address.
func (s *SQLStore) AccountByEmail(ctx context.Context, email string) (*store.Account, error) {
	return s.account(ctx, `SELECT id, login, email, display_name FROM accounts WHERE email = ?`, email)
}

// AccountByLogin returns one account by login name.
func (s *SQLStore) AccountByLogin(ctx context.Context, login string) (*store.Account, error) {
	return s.account(ctx, `SELECT id, login, email, display_name FROM accounts WHERE login = ?`, login)
}

func (s *SQLStore) account(ctx context.Context, query string, arg any) (*store.Account, error) {
	var account store.Account
	err := s.db.QueryRowxContext(ctx, s.rebind(query), arg).
		Scan(&account.ID, &account.Login, &account.Email, &account.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	if err := s.loadAttributes(ctx, &account); err != nil {
		return nil, err
	}

	return &account, nil
}

// loadAttributes fills the account's attribute map with the first stored
// value per key. Multi-valued attributes are read through AttributeValues.
func (s *SQLStore) loadAttributes(ctx context.Context, account *store.Account) error {
	query := s.rebind(`SELECT attr_key, attr_value FROM account_attributes
		WHERE account_id = ? ORDER BY id ASC`)

	rows, err := s.db.QueryContext(ctx, query, account.ID)
	if err != nil {
		return fmt.Errorf("failed to load attributes: %w", err)
	}
	defer rows.Close()

	account.Attributes = make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("failed to scan attribute: %w", err)
		}
		if _, ok := account.Attributes[key]; ok {
			continue
		}
		account.Attributes[key] = value
	}

	return rows.Err()
}

// AttributeValues returns every stored value for one attribute in insertion
// order.
func (s *SQLStore) AttributeValues(ctx context.Context, id int64, key string) ([]string, error) {
	query := s.rebind(`SELECT attr_value FROM account_attributes
		WHERE account_id = ? AND attr_key = ? ORDER BY id ASC`)

	rows, err := s.db.QueryContext(ctx, query, id, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read attribute %s: %w", key, err)
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("failed to scan attribute value: %w", err)
		}
		values = append(values, value)
	}

	return values, rows.Err()
}

// SetAttribute replaces the stored values for one attribute with a single
// value. An empty value clears the attribute entirely.
func (s *SQLStore) SetAttribute(ctx context.Context, id int64, key, value string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin attribute write: %w", err)
	}
	defer tx.Rollback()

	del := s.rebind(`DELETE FROM account_attributes WHERE account_id = ? AND attr_key = ?`)
	if _, err := tx.ExecContext(ctx, del, id, key); err != nil {
		return fmt.Errorf("failed to clear attribute %s: %w", key, err)
	}

	if value != "" {
		ins := s.rebind(`INSERT INTO account_attributes (account_id, attr_key, attr_value)
			VALUES (?, ?, ?)`)
		if _, err := tx.ExecContext(ctx, ins, id, key, value); err != nil {
			return fmt.Errorf("failed to write attribute %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit attribute write: %w", err)
	}

	return nil
}

// CreateAccount inserts an account and its attributes, assigning ID. The
// UNIQUE constraints on login and email are the authority on duplicates; a
// concurrent create racing past the existence check still comes back as
// ErrExists.
func (s *SQLStore) CreateAccount(ctx context.Context, account *store.Account) error {
	if _, err := s.AccountByEmail(ctx, account.Email); err == nil {
		return store.ErrExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	if s.driver == "postgres" {
		err := s.db.QueryRowContext(ctx, s.rebind(
			`INSERT INTO accounts (login, email, display_name) VALUES (?, ?, ?) RETURNING id`),
			account.Login, account.Email, account.DisplayName,
		).Scan(&account.ID)
		if isUniqueViolation(err) {
			return store.ErrExists
		}
		if err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}
	} else {
		res, err := s.db.ExecContext(ctx, s.rebind(
			`INSERT INTO accounts (login, email, display_name) VALUES (?, ?, ?)`),
			account.Login, account.Email, account.DisplayName)
		if isUniqueViolation(err) {
			return store.ErrExists
		}
		if err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}
		account.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read new account id: %w", err)
		}
	}

	return s.writeAttributes(ctx, account)
}

// isUniqueViolation reports whether err is a unique-constraint rejection
// from either backend.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	return false
}

// UpdateAccount updates an account's base columns and attributes.
func (s *SQLStore) UpdateAccount(ctx context.Context, account *store.Account) error {
	query := s.rebind(`UPDATE accounts SET login = ?, email = ?, display_name = ? WHERE id = ?`)

	res, err := s.db.ExecContext(ctx, query,
		account.Login, account.Email, account.DisplayName, account.ID)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}

	return s.writeAttributes(ctx, account)
}

func (s *SQLStore) writeAttributes(ctx context.Context, account *store.Account) error {
	for key, value := range account.Attributes {
		if err := s.SetAttribute(ctx, account.ID, key, value); err != nil {
			return err
		}
	}
	return nil
}
