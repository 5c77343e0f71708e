// Package store defines the directory store: the relational backing for
// member accounts and their attributes. Accounts live in a base table and
// attributes in a key-value side table, one row per account-attribute pair.
// The search query builder emits parameterized SQL against this shape; the
// store executes it and exposes simple account and attribute reads and
// writes around it.
package store
