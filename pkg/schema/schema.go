package schema

import (
	"regexp"
	"sort"

	"github.com/castlegateit/memberdir/pkg/hooks"
)

// Validation identifies how a field value is validated on input.
type Validation string

const (
	ValidateNone  Validation = ""
	ValidateEmail Validation = "email"
)

// Input identifies the form control used to edit a field.
type Input string

const (
	InputText     Input = "text"
	InputTextarea Input = "textarea"
	InputCheckbox Input = "checkbox"
	InputRadio    Input = "radio"
	InputSelect   Input = "select"
)

// FieldDefinition describes one member profile field.
type FieldDefinition struct {
	Key      string     `yaml:"key" json:"key"`
	Label    string     `yaml:"label" json:"label"`
	Required bool       `yaml:"required" json:"required"`
	Validate Validation `yaml:"validate" json:"validate,omitempty"`
	Input    Input      `yaml:"input" json:"input,omitempty"`

	// Options holds the value-to-label mapping for checkbox, radio, and
	// select inputs. Nil for free-text fields.
	Options map[string]string `yaml:"options" json:"options,omitempty"`
}

// Reserved keys identify account columns rather than attributes. They are
// present in the registry but excluded from AttributeFields.
const (
	KeyUserID = "user_id"
	KeyLogin  = "login"
	KeyEmail  = "email"
)

// keyPattern is the set of attribute keys the query builder will accept as
// column aliases. Extension fields with keys outside this set are dropped at
// registry construction.
var keyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// builtinOrder fixes a deterministic ordering for the built-in fields.
var builtinOrder = []string{
	KeyUserID,
	KeyEmail,
	"first_name",
	"last_name",
	"title",
	"organization",
	"department",
	"position",
	"tel",
	"notes",
}

// builtinFields returns the fixed default field set. A fresh map is built on
// every call so callers can never mutate the defaults.
func builtinFields() map[string]FieldDefinition {
	return map[string]FieldDefinition{
		KeyUserID:      {Key: KeyUserID, Label: "User ID"},
		KeyEmail:       {Key: KeyEmail, Label: "Email", Required: true, Validate: ValidateEmail},
		"first_name":   {Key: "first_name", Label: "First name", Required: true},
		"last_name":    {Key: "last_name", Label: "Last name", Required: true},
		"title":        {Key: "title", Label: "Title"},
		"organization": {Key: "organization", Label: "Organization"},
		"department":   {Key: "department", Label: "Department"},
		"position":     {Key: "position", Label: "Position"},
		"tel":          {Key: "tel", Label: "Telephone"},
		"notes":        {Key: "notes", Label: "Notes", Input: InputTextarea},
	}
}

// Registry is the canonical field set for one request. Construction is pure:
// no I/O and no failure modes. Invalid extension entries are dropped or
// overwritten by the built-in merge pass.
type Registry struct {
	fields map[string]FieldDefinition
	order  []string
}

// Hook is the extension point applied to the extension field set before the
// built-in merge.
type Hook = hooks.Point[map[string]FieldDefinition]

// NewRegistry builds a registry from an extension-supplied field set. The
// built-ins are re-applied after the hook so they cannot be removed; an
// extension may add fields and may override non-reserved built-in traits,
// but a built-in key always survives with at least its built-in definition.
func NewRegistry(extension map[string]FieldDefinition, hook *Hook) *Registry {
	if hook != nil {
		extension = hook.Apply(extension)
	}

	fields := make(map[string]FieldDefinition)
	var order []string

	for _, key := range sortedKeys(extension) {
		def := extension[key]
		if !keyPattern.MatchString(key) {
			continue
		}
		def.Key = key
		fields[key] = def
		order = append(order, key)
	}

	// Built-ins win on key presence.
	for _, key := range builtinOrder {
		if _, ok := fields[key]; !ok {
			order = append(order, key)
		}
		fields[key] = builtinFields()[key]
	}

	return &Registry{fields: fields, order: order}
}

// DefaultRegistry builds a registry containing only the built-in fields.
func DefaultRegistry() *Registry {
	return NewRegistry(nil, nil)
}

// Fields returns every field keyed by name. The map is a copy.
func (r *Registry) Fields() map[string]FieldDefinition {
	out := make(map[string]FieldDefinition, len(r.fields))
	for k, v := range r.fields {
		out[k] = v
	}
	return out
}

// Field returns one field definition by key.
func (r *Registry) Field(key string) (FieldDefinition, bool) {
	def, ok := r.fields[key]
	return def, ok
}

// AttributeFields returns the fields stored as account attributes: every
// field except the reserved user_id, login, and email keys.
func (r *Registry) AttributeFields() map[string]FieldDefinition {
	out := make(map[string]FieldDefinition, len(r.fields))
	for k, v := range r.fields {
		if k == KeyUserID || k == KeyLogin || k == KeyEmail {
			continue
		}
		out[k] = v
	}
	return out
}

// AttributeKeys returns the attribute field keys in deterministic order:
// extension fields first in sorted order, then the built-ins in their fixed
// order. The query builder relies on this ordering being stable.
func (r *Registry) AttributeKeys() []string {
	var keys []string
	for _, k := range r.order {
		if k == KeyUserID || k == KeyLogin || k == KeyEmail {
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

// HasAttribute reports whether key names a non-reserved attribute field.
func (r *Registry) HasAttribute(key string) bool {
	if key == KeyUserID || key == KeyLogin || key == KeyEmail {
		return false
	}
	_, ok := r.fields[key]
	return ok
}

func sortedKeys(m map[string]FieldDefinition) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
