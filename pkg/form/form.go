// Package form validates posted member profile values against the field
// schema. Validation collects error strings per field rather than failing
// fast, so a form can be re-rendered with every problem marked.
package form

import (
	"net/mail"
	"net/url"

	"github.com/castlegateit/memberdir/pkg/hooks"
	"github.com/castlegateit/memberdir/pkg/schema"
)

// Validation messages.
const (
	msgRequired     = "required field"
	msgInvalidEmail = "invalid email address"
)

// Hooks holds the form extension points.
type Hooks struct {
	// Values rewrites the collected field values after validation.
	Values hooks.Point[map[string]string]

	// Errors rewrites the collected error map after validation.
	Errors hooks.Point[map[string]string]
}

// MemberForm validates one submission of member profile values.
type MemberForm struct {
	registry *schema.Registry
	hooks    *Hooks

	values map[string]string
	errors map[string]string
}

// New creates a form over one schema snapshot.
func New(registry *schema.Registry, h *Hooks) *MemberForm {
	if h == nil {
		h = &Hooks{}
	}
	return &MemberForm{
		registry: registry,
		hooks:    h,
		values:   make(map[string]string),
		errors:   make(map[string]string),
	}
}

// Validate collects one value per schema field from the posted parameters
// and validates required and email fields. Returns true when the submission
// has no errors.
func (f *MemberForm) Validate(posted url.Values) bool {
	f.values = make(map[string]string)
	f.errors = make(map[string]string)

	for key, field := range f.registry.Fields() {
		value := posted.Get(key)
		f.values[key] = value
		f.validateField(field, value)
	}

	f.values = f.hooks.Values.Apply(f.values)
	f.errors = f.hooks.Errors.Apply(f.errors)

	return len(f.errors) == 0
}

func (f *MemberForm) validateField(field schema.FieldDefinition, value string) {
	if !field.Required {
		return
	}

	if value == "" {
		f.errors[field.Key] = msgRequired
		return
	}

	if field.Validate == schema.ValidateEmail {
		if _, err := mail.ParseAddress(value); err != nil {
			f.errors[field.Key] = msgInvalidEmail
		}
	}
}

// Completed reports whether the last validation passed.
func (f *MemberForm) Completed() bool {
	return len(f.errors) == 0
}

// Values returns the collected field values.
func (f *MemberForm) Values() map[string]string {
	return f.values
}

// Value returns one collected field value.
func (f *MemberForm) Value(key string) string {
	return f.values[key]
}

// Errors returns the collected validation errors keyed by field.
func (f *MemberForm) Errors() map[string]string {
	return f.errors
}

// Error returns the validation error for one field, empty when valid.
func (f *MemberForm) Error(key string) string {
	return f.errors[key]
}

// Label returns the schema label for one field.
func (f *MemberForm) Label(key string) string {
	if def, ok := f.registry.Field(key); ok {
		return def.Label
	}
	return ""
}
