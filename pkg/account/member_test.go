package account

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlegateit/memberdir/pkg/roles"
	"github.com/castlegateit/memberdir/pkg/schema"
	"github.com/castlegateit/memberdir/pkg/store"
)

// memStore is a minimal in-memory DirectoryStore for member tests.
type memStore struct {
	accounts map[int64]*store.Account
	nextID   int64
}

func newMemStore() *memStore {
	return &memStore{accounts: make(map[int64]*store.Account), nextID: 1}
}

func (s *memStore) Search(context.Context, store.Query) ([]store.Row, error) { return nil, nil }

func (s *memStore) AccountByID(_ context.Context, id int64) (*store.Account, error) {
	account, ok := s.accounts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return account, nil
}

func (s *memStore) AccountByEmail(_ context.Context, email string) (*store.Account, error) {
	for _, account := range s.accounts {
		if account.Email == email {
			return account, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *memStore) AccountByLogin(_ context.Context, login string) (*store.Account, error) {
	for _, account := range s.accounts {
		if account.Login == login {
			return account, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *memStore) AttributeValues(_ context.Context, id int64, key string) ([]string, error) {
	account, ok := s.accounts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if value, ok := account.Attributes[key]; ok {
		return []string{value}, nil
	}
	return nil, nil
}

func (s *memStore) SetAttribute(_ context.Context, id int64, key, value string) error {
	account, ok := s.accounts[id]
	if !ok {
		return store.ErrNotFound
	}
	if value == "" {
		delete(account.Attributes, key)
		return nil
	}
	account.Attributes[key] = value
	return nil
}

func (s *memStore) CreateAccount(_ context.Context, account *store.Account) error {
	for _, existing := range s.accounts {
		if existing.Email == account.Email {
			return store.ErrExists
		}
	}
	account.ID = s.nextID
	s.nextID++
	s.accounts[account.ID] = account
	return nil
}

func (s *memStore) UpdateAccount(ctx context.Context, account *store.Account) error {
	existing, ok := s.accounts[account.ID]
	if !ok {
		return store.ErrNotFound
	}
	existing.Login = account.Login
	existing.Email = account.Email
	existing.DisplayName = account.DisplayName
	for key, value := range account.Attributes {
		if err := s.SetAttribute(ctx, account.ID, key, value); err != nil {
			return err
		}
	}
	return nil
}

func newTestMember(st store.DirectoryStore) *Member {
	return NewMember(st, schema.DefaultRegistry(), roles.NewRegistry(nil))
}

func seedAccount(s *memStore) *store.Account {
	account := &store.Account{
		ID:          1,
		Login:       "jsmith",
		Email:       "jsmith@example.com",
		DisplayName: "Jane Smith",
		Attributes: map[string]string{
			"first_name": "Jane",
			"last_name":  "Smith",
			"roles":      "network_member",
		},
	}
	s.accounts[1] = account
	s.nextID = 2
	return account
}

func TestMemberLoad(t *testing.T) {
	st := newMemStore()
	seedAccount(st)
	ctx := context.Background()

	t.Run("by numeric id", func(t *testing.T) {
		m := newTestMember(st)
		require.NoError(t, m.Load(ctx, "1"))
		assert.Equal(t, int64(1), m.ID())
		assert.Equal(t, "Smith", m.Values()["last_name"])
	})

	t.Run("by email", func(t *testing.T) {
		m := newTestMember(st)
		require.NoError(t, m.Load(ctx, "jsmith@example.com"))
		assert.Equal(t, int64(1), m.ID())
	})

	t.Run("by login", func(t *testing.T) {
		m := newTestMember(st)
		require.NoError(t, m.Load(ctx, "jsmith"))
		assert.Equal(t, int64(1), m.ID())
	})

	t.Run("missing account empties the member", func(t *testing.T) {
		m := newTestMember(st)
		require.NoError(t, m.Load(ctx, "1"))

		err := m.Load(ctx, "999")
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.Equal(t, int64(0), m.ID())
		assert.Empty(t, m.Values()["last_name"])
	})

	t.Run("attributes outside the schema are ignored", func(t *testing.T) {
		st.accounts[1].Attributes["shadow"] = "x"
		defer delete(st.accounts[1].Attributes, "shadow")

		m := newTestMember(st)
		require.NoError(t, m.LoadID(ctx, 1))
		assert.NotContains(t, m.Values(), "shadow")
	})
}

func TestMemberValues(t *testing.T) {
	st := newMemStore()
	seedAccount(st)

	m := newTestMember(st)
	require.NoError(t, m.LoadID(context.Background(), 1))

	values := m.Values()
	assert.Equal(t, "1", values[schema.KeyUserID])
	assert.Equal(t, "jsmith@example.com", values[schema.KeyEmail])
	assert.Equal(t, "Jane", values["first_name"])

	// Every schema attribute is present, loaded or not.
	assert.Contains(t, values, "notes")
	assert.Equal(t, "", values["notes"])
}

func TestMemberSetValues(t *testing.T) {
	t.Run("schema keys applied, unknown dropped", func(t *testing.T) {
		m := newTestMember(newMemStore())
		m.SetValues(map[string]string{
			"first_name": "Jane",
			"last_name":  "Smith",
			"bogus":      "x",
		})

		values := m.Values()
		assert.Equal(t, "Jane", values["first_name"])
		assert.NotContains(t, values, "bogus")
	})

	t.Run("display name derived from names", func(t *testing.T) {
		st := newMemStore()
		m := newTestMember(st)
		m.SetValues(map[string]string{
			"email":      "new@example.com",
			"first_name": "Jane",
			"last_name":  "Smith",
		})

		require.NoError(t, m.Create(context.Background()))
		assert.Equal(t, "Jane Smith", st.accounts[m.ID()].DisplayName)
	})
}

func TestMemberCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("login is the email, default role assigned", func(t *testing.T) {
		st := newMemStore()
		m := newTestMember(st)
		m.SetValues(map[string]string{
			"email":      "new@example.com",
			"first_name": "New",
			"last_name":  "Member",
		})

		require.NoError(t, m.Create(ctx))
		require.NotZero(t, m.ID())

		account := st.accounts[m.ID()]
		assert.Equal(t, "new@example.com", account.Login)
		assert.Equal(t, "network_member", account.Attributes["roles"])
	})

	t.Run("empty attributes are not written", func(t *testing.T) {
		st := newMemStore()
		m := newTestMember(st)
		m.SetValues(map[string]string{"email": "new@example.com", "last_name": "Member"})

		require.NoError(t, m.Create(ctx))
		assert.NotContains(t, st.accounts[m.ID()].Attributes, "notes")
	})

	t.Run("duplicate email", func(t *testing.T) {
		st := newMemStore()
		seedAccount(st)

		m := newTestMember(st)
		m.SetValues(map[string]string{"email": "jsmith@example.com", "last_name": "Smith"})

		assert.ErrorIs(t, m.Create(ctx), store.ErrExists)
	})
}

func TestMemberUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("writes changed values back", func(t *testing.T) {
		st := newMemStore()
		seedAccount(st)

		m := newTestMember(st)
		require.NoError(t, m.LoadID(ctx, 1))

		m.SetValues(map[string]string{"department": "Sales"})
		require.NoError(t, m.Update(ctx))

		assert.Equal(t, "Sales", st.accounts[1].Attributes["department"])
	})

	t.Run("blanked value is cleared for later loads", func(t *testing.T) {
		st := newMemStore()
		seedAccount(st)
		st.accounts[1].Attributes["department"] = "Sales"

		m := newTestMember(st)
		require.NoError(t, m.LoadID(ctx, 1))

		m.SetValues(map[string]string{"department": ""})
		require.NoError(t, m.Update(ctx))

		fresh := newTestMember(st)
		require.NoError(t, fresh.LoadID(ctx, 1))
		assert.Empty(t, fresh.Values()["department"])
		assert.NotContains(t, st.accounts[1].Attributes, "department")
	})

	t.Run("unloaded member cannot update", func(t *testing.T) {
		m := newTestMember(newMemStore())
		assert.ErrorIs(t, m.Update(ctx), store.ErrNotFound)
	})
}

func TestMemberCanEdit(t *testing.T) {
	st := newMemStore()
	seedAccount(st)

	var hook roles.Hook
	hook.Register(func(rs []roles.Role) []roles.Role {
		return append(rs, roles.Role{
			Key:          "network_admin",
			Name:         "network_admin",
			Capabilities: []string{roles.CapEditMembers},
		})
	})

	m := NewMember(st, schema.DefaultRegistry(), roles.NewRegistry(&hook))
	require.NoError(t, m.LoadID(context.Background(), 1))

	assert.True(t, m.CanEdit(1, []string{"network_member"}), "members edit themselves")
	assert.False(t, m.CanEdit(2, []string{"network_member"}), "members cannot edit others")
	assert.True(t, m.CanEdit(2, []string{"network_admin"}), "capability holders edit anyone")
	assert.False(t, m.CanEdit(0, nil))
}
