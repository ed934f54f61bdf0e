// Package sessions persists the client's authenticated session in SQLite so
// it survives restarts. The table holds at most one row.
package sessions
