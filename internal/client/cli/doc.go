// Package cli provides the interactive factfeed command-line client.
//
// It wires configuration, local storage, the data service client and the
// synchronisation services into a REPL. Typical flow: restore the previous
// session, start a background connectivity watcher, then execute user
// commands until exit.
//
// Key features:
//   - Login / Signup / Logout
//   - List facts, filter by category, show category colours
//   - Post a fact, vote on it, delete it
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher and runREPL for details.
package cli
