// Package schema defines the canonical set of member profile fields: the
// searchable and editable attributes attached to a directory account. The
// registry merges extension-supplied fields with a fixed built-in set; the
// built-ins can be re-labelled but never removed.
package schema
