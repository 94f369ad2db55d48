// Package repository provides a generic repository built on Bun for CRUD
// operations, pagination, transactions and upserts, and the SQL-backed
// vehicle store used by the query engine.
package repository
