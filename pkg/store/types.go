package store

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// ErrNotFound is returned by account lookups when no account matches.
var ErrNotFound = errors.New("account not found")

// ErrExists is returned when creating an account whose email is taken.
var ErrExists = errors.New("account already exists")

// Account is one directory account plus its attribute map. The search core
// only ever reads accounts; writes go through the member layer.
type Account struct {
	ID          int64             `json:"user_id"`
	Login       string            `json:"login"`
	Email       string            `json:"email"`
	DisplayName string            `json:"display_name"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// Row is one search result row. The column set is dynamic: base account
// columns plus one column per schema attribute plus the synthesized
// all_fields column, so rows are column-name-keyed maps rather than structs.
type Row map[string]any

// ID returns the row's user_id column as an integer.
func (r Row) ID() int64 {
	switch v := r["user_id"].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case []byte:
		n, _ := strconv.ParseInt(string(v), 10, 64)
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}

// String returns a column as a string. Missing and NULL columns are empty.
func (r Row) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return ""
}

// Has reports whether the row carries the given column at all.
func (r Row) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Query is an executable search query: SQL text with every untrusted value
// bound as a parameter. Placeholders use the ? form; backends rebind to
// their driver's style before execution.
type Query struct {
	SQL  string
	Args []any
}

// DirectoryStore is the interface the search core and the member layer
// consume. Execution is synchronous; any failure is returned unmodified and
// never retried at this layer.
type DirectoryStore interface {
	// Search executes a query built by the search query builder and
	// returns its rows.
	Search(ctx context.Context, query Query) ([]Row, error)

	// AccountByID returns one account, attributes included, or ErrNotFound.
	AccountByID(ctx context.Context, id int64) (*Account, error)

	// AccountByEmail returns one account by email, or ErrNotFound.
	AccountByEmail(ctx context.Context, email string) (*Account, error)

	// AccountByLogin returns one account by login name, or ErrNotFound.
	AccountByLogin(ctx context.Context, login string) (*Account, error)

	// AttributeValues returns every stored value for one account
	// attribute, in insertion order. This is the authoritative read path
	// for multi-valued attributes; the search query's correlated subquery
	// only sees the first value.
	AttributeValues(ctx context.Context, id int64, key string) ([]string, error)

	// SetAttribute replaces the stored values for one account attribute
	// with a single value. An empty value clears the attribute.
	SetAttribute(ctx context.Context, id int64, key, value string) error

	// CreateAccount inserts an account and its attributes, assigning ID.
	CreateAccount(ctx context.Context, account *Account) error

	// UpdateAccount updates an account's base columns and attributes.
	UpdateAccount(ctx context.Context, account *Account) error
}

// Config holds directory store configuration.
type Config struct {
	// Driver selects the backend: "postgres" or "sqlite".
	Driver string

	// PostgresURL is the connection string for the postgres backend.
	PostgresURL string

	// SQLitePath is the database file for the sqlite backend; ":memory:"
	// gives an ephemeral store.
	SQLitePath string

	MaxConns int
	MinConns int
	Timeout  time.Duration

	// Redis account-cache settings. Caching is disabled when RedisURL is
	// empty.
	RedisURL      string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
}

// DefaultConfig returns sensible defaults: an in-memory sqlite store with
// no cache.
func DefaultConfig() Config {
	return Config{
		Driver:     "sqlite",
		SQLitePath: ":memory:",
		MaxConns:   20,
		MinConns:   2,
		Timeout:    10 * time.Second,
		CacheTTL:   5 * time.Minute,
	}
}
