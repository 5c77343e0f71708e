// Package account manages member records: loading a directory account with
// its profile attributes and writing profile edits back through the store.
package account

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/castlegateit/memberdir/pkg/roles"
	"github.com/castlegateit/memberdir/pkg/schema"
	"github.com/castlegateit/memberdir/pkg/store"
)

// ErrAccessDenied is returned when the acting member may not edit the
// target member.
var ErrAccessDenied = errors.New("access denied")

// Member is one directory member: account columns plus the schema's
// attribute fields. Attribute keys are fixed by the registry; unknown keys
// in incoming values are discarded.
type Member struct {
	store    store.DirectoryStore
	registry *schema.Registry
	roles    *roles.Registry

	id          int64
	email       string
	displayName string
	attributes  map[string]string
}

// NewMember creates an empty member bound to a store and schema snapshot.
func NewMember(st store.DirectoryStore, registry *schema.Registry, r *roles.Registry) *Member {
	m := &Member{store: st, registry: registry, roles: r}
	m.reset()
	return m
}

// reset clears account data and rebuilds the attribute map from the schema.
func (m *Member) reset() {
	m.id = 0
	m.email = ""
	m.displayName = ""
	m.attributes = make(map[string]string)
	for key := range m.registry.AttributeFields() {
		m.attributes[key] = ""
	}
}

// ID returns the member's account ID, zero when unloaded.
func (m *Member) ID() int64 {
	return m.id
}

// Load populates the member from the store. The identifier is matched by
// email when it contains an @, by login when it is otherwise non-numeric,
// and by ID when numeric. A missing account leaves the member empty and
// returns store.ErrNotFound.
func (m *Member) Load(ctx context.Context, ident string) error {
	account, err := m.lookup(ctx, ident)

	m.reset()

	if err != nil {
		return err
	}

	m.id = account.ID
	m.email = account.Email
	m.displayName = account.DisplayName
	for key := range m.attributes {
		if value, ok := account.Attributes[key]; ok {
			m.attributes[key] = value
		}
	}

	return nil
}

// LoadID populates the member by account ID.
func (m *Member) LoadID(ctx context.Context, id int64) error {
	return m.Load(ctx, strconv.FormatInt(id, 10))
}

func (m *Member) lookup(ctx context.Context, ident string) (*store.Account, error) {
	if strings.Contains(ident, "@") {
		return m.store.AccountByEmail(ctx, ident)
	}
	if _, err := strconv.ParseInt(ident, 10, 64); err != nil {
		return m.store.AccountByLogin(ctx, ident)
	}

	id, _ := strconv.ParseInt(ident, 10, 64)
	return m.store.AccountByID(ctx, id)
}

// Values returns the member's form-friendly values: the reserved user_id
// and email keys plus every attribute.
func (m *Member) Values() map[string]string {
	values := map[string]string{
		schema.KeyUserID: strconv.FormatInt(m.id, 10),
		schema.KeyEmail:  m.email,
	}
	for key, value := range m.attributes {
		values[key] = value
	}
	return values
}

// SetValues updates the member from form-friendly values. Keys outside the
// schema are discarded. When no display name is supplied it is derived from
// the first and last name.
func (m *Member) SetValues(values map[string]string) {
	if id, ok := values[schema.KeyUserID]; ok {
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			m.id = n
		}
	}
	if email, ok := values[schema.KeyEmail]; ok {
		m.email = email
	}

	for key := range m.attributes {
		if value, ok := values[key]; ok {
			m.attributes[key] = value
		}
	}

	if _, ok := values["display_name"]; !ok {
		names := []string{m.attributes["first_name"], m.attributes["last_name"]}
		m.displayName = strings.TrimSpace(strings.Join(names, " "))
	}
}

// Create inserts the member as a new account with the default membership
// role. The login is the email address. Returns store.ErrExists when the
// email is already registered.
func (m *Member) Create(ctx context.Context) error {
	account := &store.Account{
		Login:       m.email,
		Email:       m.email,
		DisplayName: m.displayName,
		Attributes:  m.attributeValues(),
	}

	if role, ok := m.roles.Default(); ok {
		account.Attributes["roles"] = role.Name
	}

	if err := m.store.CreateAccount(ctx, account); err != nil {
		return fmt.Errorf("failed to create member: %w", err)
	}

	m.id = account.ID

	return nil
}

// Update writes the member's current values back to its existing account.
// Every schema attribute is written, empties included, so a blanked field is
// cleared in the store rather than left at its previous value.
func (m *Member) Update(ctx context.Context) error {
	if m.id == 0 {
		return store.ErrNotFound
	}

	account := &store.Account{
		ID:          m.id,
		Login:       m.email,
		Email:       m.email,
		DisplayName: m.displayName,
		Attributes:  m.allAttributeValues(),
	}

	if err := m.store.UpdateAccount(ctx, account); err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}

	return nil
}

// attributeValues returns the non-empty attributes for writing a new
// account.
func (m *Member) attributeValues() map[string]string {
	out := make(map[string]string)
	for key, value := range m.attributes {
		if value == "" {
			continue
		}
		out[key] = value
	}
	return out
}

// allAttributeValues returns every schema attribute, empties included.
func (m *Member) allAttributeValues() map[string]string {
	out := make(map[string]string, len(m.attributes))
	for key, value := range m.attributes {
		out[key] = value
	}
	return out
}

// CanEdit reports whether an actor holding the given role names may edit
// this member: holders of the edit_members capability may edit anyone,
// everyone else only themselves.
func (m *Member) CanEdit(actorID int64, actorRoles []string) bool {
	if m.roles.CanEditMembers(actorRoles) {
		return true
	}
	return m.id != 0 && m.id == actorID
}
