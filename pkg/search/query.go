package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/castlegateit/memberdir/pkg/schema"
	"github.com/castlegateit/memberdir/pkg/store"
)

// Attribute keys with fixed meaning to the builder.
const (
	// initialSourceKey is the attribute the initial column derives from.
	initialSourceKey = "last_name"

	// rolesKey is the attribute holding an account's role markers.
	rolesKey = "roles"

	// approvalKey and approvedValue drive the optional approval predicate.
	approvalKey   = "approval_status"
	approvedValue = "approved"
)

// allFieldsColumn is the synthesized column spanning every attribute value,
// used for unscoped term search.
const allFieldsColumn = "all_fields"

// Base column aliases that may also be targeted by a scoped term filter.
var baseSearchColumns = map[string]bool{
	"login":        true,
	"email":        true,
	"display_name": true,
	"initial":      true,
}

// BuilderOptions configure query construction.
type BuilderOptions struct {
	// Roles holds the registered membership role names. Results are
	// restricted to accounts carrying at least one of them; an empty set
	// omits the restriction entirely.
	Roles []string

	// Approval appends a predicate restricting results to approved
	// accounts. Enabled only when the external approval capability is
	// present; absence is the normal case.
	Approval bool
}

// Builder translates search criteria plus the field schema into one
// executable query against the directory store. Every untrusted value is
// bound as a parameter; identifiers are validated against the schema and
// quoted, never taken from input verbatim.
type Builder struct {
	registry *schema.Registry
	opts     BuilderOptions
}

// NewBuilder creates a query builder for one schema snapshot.
func NewBuilder(registry *schema.Registry, opts BuilderOptions) *Builder {
	return &Builder{registry: registry, opts: opts}
}

// Build assembles the search query. The inner select produces one row per
// account with the base columns, a correlated single-value lookup per
// attribute key, the derived initial column, and the concatenated all_fields
// column. Predicates reference those aliases, so they go on an outer select
// over the derived table; categories are combined with AND, multiple values
// for one attribute key with OR. With no predicates at all the query lists
// every account.
func (b *Builder) Build(c Criteria) store.Query {
	var sb strings.Builder
	var args []any

	sb.WriteString("SELECT * FROM (")
	args = b.writeColumns(&sb, args)
	sb.WriteString(") AS members")

	predicates, args := b.predicates(c, args)
	if len(predicates) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(predicates, " AND "))
	}

	sb.WriteString(" ORDER BY ")
	sb.WriteString(quoteIdent(initialSourceKey))
	// Tie-break order among equal last names is store-defined.
	sb.WriteString(" ASC")

	return store.Query{SQL: sb.String(), Args: args}
}

// writeColumns emits the inner select and returns the extended args.
func (b *Builder) writeColumns(sb *strings.Builder, args []any) []any {
	sb.WriteString("SELECT accounts.id AS user_id, accounts.login AS login, ")
	sb.WriteString("accounts.email AS email, accounts.display_name AS display_name, ")

	// Derived last-name initial.
	sb.WriteString("(SELECT LOWER(SUBSTR(attr_value, 1, 1)) FROM account_attributes ")
	sb.WriteString("WHERE account_id = accounts.id AND attr_key = ? ORDER BY id ASC LIMIT 1) AS initial")
	args = append(args, initialSourceKey)

	var lookups []string
	for _, key := range b.registry.AttributeKeys() {
		sb.WriteString(", ")
		sb.WriteString(attributeLookup)
		sb.WriteString(" AS ")
		sb.WriteString(quoteIdent(key))
		args = append(args, key)
		lookups = append(lookups, attributeLookup)
	}

	// Space-joined concatenation of every attribute value for unscoped
	// term search. The registry always carries the built-in attribute
	// fields, so the column always exists.
	sb.WriteString(", CONCAT_WS(' ', ")
	sb.WriteString(strings.Join(lookups, ", "))
	sb.WriteString(") AS ")
	sb.WriteString(allFieldsColumn)
	for _, key := range b.registry.AttributeKeys() {
		args = append(args, key)
	}

	sb.WriteString(" FROM accounts")

	return args
}

// attributeLookup is the correlated single-value subquery for one attribute
// key, with the key bound as a parameter.
const attributeLookup = "(SELECT attr_value FROM account_attributes " +
	"WHERE account_id = accounts.id AND attr_key = ? ORDER BY id ASC LIMIT 1)"

// memberAttributeLookup is the same lookup correlated against the outer
// derived table, for predicates on attributes that are not schema columns.
const memberAttributeLookup = "(SELECT attr_value FROM account_attributes " +
	"WHERE account_id = members.user_id AND attr_key = ? ORDER BY id ASC LIMIT 1)"

// predicates assembles the outer filter clauses in fixed category order.
func (b *Builder) predicates(c Criteria, args []any) ([]string, []any) {
	var preds []string

	// Role restriction: an OR across every registered role name. No
	// registered roles means no restriction, not an empty OR-group.
	if len(b.opts.Roles) > 0 {
		var group []string
		for _, role := range b.opts.Roles {
			if role == "" {
				continue
			}
			group = append(group, memberAttributeLookup+" LIKE ? ESCAPE '\\'")
			args = append(args, rolesKey, containsPattern(role))
		}
		if len(group) > 0 {
			preds = append(preds, "("+strings.Join(group, " OR ")+")")
		}
	}

	if b.opts.Approval {
		preds = append(preds, memberAttributeLookup+" = ?")
		args = append(args, approvalKey, approvedValue)
	}

	if c.Term != "" {
		column := b.termColumn(c.Field)
		preds = append(preds, "LOWER("+column+") LIKE ? ESCAPE '\\'")
		args = append(args, containsPattern(strings.ToLower(c.Term)))
	}

	if c.Initial != "" {
		preds = append(preds, "initial = ?")
		args = append(args, c.Initial)
	}

	// Attribute OR-groups, ANDed across keys. Keys are iterated in sorted
	// order so the emitted query is deterministic.
	keys := make([]string, 0, len(c.Attributes))
	for key := range c.Attributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		values := c.Attributes[key]
		if len(values) == 0 || !b.registry.HasAttribute(key) {
			continue
		}

		var group []string
		for _, value := range values {
			group = append(group, "LOWER("+quoteIdent(key)+") LIKE ? ESCAPE '\\'")
			args = append(args, containsPattern(strings.ToLower(value)))
		}
		preds = append(preds, "("+strings.Join(group, " OR ")+")")
	}

	return preds, args
}

// termColumn resolves the column a scoped term filter applies to. Field
// names are identifiers and cannot be bound as parameters, so anything not
// recognized as a searchable column falls back to all_fields.
func (b *Builder) termColumn(field string) string {
	if field == "" || field == allFieldsColumn {
		return allFieldsColumn
	}
	if baseSearchColumns[field] || b.registry.HasAttribute(field) {
		return quoteIdent(field)
	}
	return allFieldsColumn
}

// containsPattern wraps a value for substring LIKE matching, escaping the
// wildcard characters so user input matches literally.
func containsPattern(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, "%", `\%`)
	value = strings.ReplaceAll(value, "_", `\_`)
	return "%" + value + "%"
}

// quoteIdent double-quotes an identifier. Keys reaching this point have
// already passed the schema's key pattern; quoting guards the ones that
// arrive from configuration rather than the built-ins.
func quoteIdent(name string) string {
	return fmt.Sprintf(`"%s"`, strings.ReplaceAll(name, `"`, `""`))
}
