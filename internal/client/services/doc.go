// Package services contains the client's synchronisation layer: the session
// manager that owns the current identity, the fact store that caches the
// filtered list, and the mutation coordinator that writes to the remote
// table and patches the cache.
//
// All three are safe for concurrent use. None holds its lock across a remote
// call. Remote calls that the UI does not wait for (the refetch after an
// identity change, the session restore) run on their own goroutines.
package services
