// Package storage defines TeamFund persistence contracts and the row shapes
// the relational store reads and writes.
//
// Rows mirror the snake_case columns of the store. The *FromRow and *ToRow
// functions are the only place field names and value types are translated
// between rows and domain records; they hold no business rules.
package storage
