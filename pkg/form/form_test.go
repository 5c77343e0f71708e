package form

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlegateit/memberdir/pkg/schema"
)

func validSubmission() url.Values {
	return url.Values{
		"email":      {"jsmith@example.com"},
		"first_name": {"Jane"},
		"last_name":  {"Smith"},
	}
}

func TestValidate(t *testing.T) {
	registry := schema.DefaultRegistry()

	t.Run("complete submission passes", func(t *testing.T) {
		f := New(registry, nil)
		assert.True(t, f.Validate(validSubmission()))
		assert.True(t, f.Completed())
		assert.Empty(t, f.Errors())
		assert.Equal(t, "Jane", f.Value("first_name"))
	})

	t.Run("missing required fields collect errors", func(t *testing.T) {
		f := New(registry, nil)

		assert.False(t, f.Validate(url.Values{}))
		assert.Equal(t, "required field", f.Error("email"))
		assert.Equal(t, "required field", f.Error("first_name"))
		assert.Equal(t, "required field", f.Error("last_name"))
		assert.Empty(t, f.Error("notes"), "optional fields have no error")
	})

	t.Run("malformed email rejected", func(t *testing.T) {
		posted := validSubmission()
		posted.Set("email", "not-an-address")

		f := New(registry, nil)
		assert.False(t, f.Validate(posted))
		assert.Equal(t, "invalid email address", f.Error("email"))
	})

	t.Run("every schema field collected", func(t *testing.T) {
		f := New(registry, nil)
		f.Validate(validSubmission())

		values := f.Values()
		assert.Contains(t, values, "notes")
		assert.Equal(t, "", values["notes"])
	})

	t.Run("parameters outside the schema ignored", func(t *testing.T) {
		posted := validSubmission()
		posted.Set("bogus", "x")

		f := New(registry, nil)
		require.True(t, f.Validate(posted))
		assert.NotContains(t, f.Values(), "bogus")
	})

	t.Run("revalidation resets state", func(t *testing.T) {
		f := New(registry, nil)
		require.False(t, f.Validate(url.Values{}))
		require.True(t, f.Validate(validSubmission()))
		assert.Empty(t, f.Errors())
	})
}

func TestValidateExtensionFields(t *testing.T) {
	registry := schema.NewRegistry(map[string]schema.FieldDefinition{
		"membership_type": {Key: "membership_type", Label: "Membership type", Required: true},
	}, nil)

	f := New(registry, nil)
	assert.False(t, f.Validate(validSubmission()))
	assert.Equal(t, "required field", f.Error("membership_type"))

	posted := validSubmission()
	posted.Set("membership_type", "full")
	assert.True(t, f.Validate(posted))
}

func TestFormHooks(t *testing.T) {
	t.Run("values hook rewrites collected values", func(t *testing.T) {
		h := &Hooks{}
		h.Values.Register(func(values map[string]string) map[string]string {
			values["organization"] = "Acme"
			return values
		})

		f := New(schema.DefaultRegistry(), h)
		require.True(t, f.Validate(validSubmission()))
		assert.Equal(t, "Acme", f.Value("organization"))
	})

	t.Run("errors hook can veto a submission", func(t *testing.T) {
		h := &Hooks{}
		h.Errors.Register(func(errs map[string]string) map[string]string {
			errs["email"] = "domain not allowed"
			return errs
		})

		f := New(schema.DefaultRegistry(), h)
		assert.False(t, f.Validate(validSubmission()))
		assert.Equal(t, "domain not allowed", f.Error("email"))
	})
}

func TestLabel(t *testing.T) {
	f := New(schema.DefaultRegistry(), nil)
	assert.Equal(t, "Last name", f.Label("last_name"))
	assert.Empty(t, f.Label("bogus"))
}
