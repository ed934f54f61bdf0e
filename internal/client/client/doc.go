// Package client contains the factfeed client's view of the remote data
// service.
//
// # Overview
//
//  1. Transport-agnostic contracts: FactsTable for the facts table and
//     AuthProvider for the session, plus SessionStore for persisting it.
//  2. HTTPClient, a Supabase-compatible implementation of both. It injects
//     the bearer token, transparently refreshes an expired token on 401 and
//     announces the new session as TOKEN_REFRESHED, and maps HTTP status
//     codes to sentinel errors.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database with embedded goose migrations.
//
// # Error Handling
//
// Non-2xx answers are returned as *APIError carrying the service's message.
// APIError unwraps to ErrUnauthorized, ErrUnavailable or ErrNotFound where
// the status allows, and transport failures wrap ErrUnavailable.
//
// HTTPClient is safe for concurrent use. All operations honor context
// cancellation.
package client
