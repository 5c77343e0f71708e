package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/castlegateit/memberdir/pkg/schema"
	"github.com/castlegateit/memberdir/pkg/store"
)

// Format selects the output shape of sanitized results.
type Format string

const (
	// FormatDefault re-reads each attribute the row carries through the
	// store's native attribute path, so multi-valued attributes come back
	// complete rather than as the first stored value the query saw.
	FormatDefault Format = "default"

	// FormatRaw returns rows exactly as the query produced them.
	FormatRaw Format = "raw"

	// FormatUser replaces each row with the full account record.
	FormatUser Format = "user"
)

// ParseFormat maps a raw format string onto a Format. Anything starting
// with "user" hydrates accounts; "raw" passes rows through; everything else
// is the default format.
func ParseFormat(s string) Format {
	s = strings.ToLower(s)
	switch {
	case s == string(FormatRaw):
		return FormatRaw
	case strings.HasPrefix(s, string(FormatUser)):
		return FormatUser
	default:
		return FormatDefault
	}
}

// Sanitizer converts raw query rows into the requested output shape.
type Sanitizer struct {
	store    store.DirectoryStore
	registry *schema.Registry
}

// NewSanitizer creates a sanitizer over one schema snapshot.
func NewSanitizer(st store.DirectoryStore, registry *schema.Registry) *Sanitizer {
	return &Sanitizer{store: st, registry: registry}
}

// Sanitize formats rows. Store failures propagate unmodified; accounts that
// vanished between query and hydration degrade rather than fail.
func (s *Sanitizer) Sanitize(ctx context.Context, rows []store.Row, format Format) ([]store.Row, error) {
	switch format {
	case FormatRaw:
		return rows, nil
	case FormatUser:
		return s.hydrateAccounts(ctx, rows)
	default:
		return s.hydrateAttributes(ctx, rows)
	}
}

// hydrateAccounts replaces each row with its full account record. Rows
// whose account no longer exists are dropped: deletion between query and
// hydration is an expected race, not an error.
func (s *Sanitizer) hydrateAccounts(ctx context.Context, rows []store.Row) ([]store.Row, error) {
	out := make([]store.Row, 0, len(rows))

	for _, row := range rows {
		account, err := s.store.AccountByID(ctx, row.ID())
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to hydrate account %d: %w", row.ID(), err)
		}
		out = append(out, accountRow(account))
	}

	return out, nil
}

// accountRow flattens an account into a result row.
func accountRow(account *store.Account) store.Row {
	row := store.Row{
		"user_id":      account.ID,
		"login":        account.Login,
		"email":        account.Email,
		"display_name": account.DisplayName,
	}
	for key, value := range account.Attributes {
		row[key] = value
	}
	return row
}

// hydrateAttributes re-reads every attribute value a row actually carries
// through the store's attribute API. The query's correlated subquery only
// sees the first stored value per key, which is good enough for filtering;
// the authoritative value for display can be multi-valued. One store read
// per attribute per row: an accepted trade-off at directory result sizes.
func (s *Sanitizer) hydrateAttributes(ctx context.Context, rows []store.Row) ([]store.Row, error) {
	keys := s.registry.AttributeKeys()

	for _, row := range rows {
		for _, key := range keys {
			if !row.Has(key) {
				continue
			}

			values, err := s.store.AttributeValues(ctx, row.ID(), key)
			if err != nil {
				return nil, fmt.Errorf("failed to read attribute %s for account %d: %w",
					key, row.ID(), err)
			}

			switch len(values) {
			case 0:
				row[key] = ""
			case 1:
				row[key] = values[0]
			default:
				row[key] = values
			}
		}
	}

	return rows, nil
}
