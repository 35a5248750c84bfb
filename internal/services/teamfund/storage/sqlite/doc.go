// Package sqlite provides the SQLite-backed TeamFund store.
//
// Lead, draft and asset queries always carry the caller's team id; a record
// owned by another team is indistinguishable from a missing one.
package sqlite
