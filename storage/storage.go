// Package storage provides the persistent key/value backends behind the credential store.
//
// A Storage is the dashboard's equivalent of browser local storage: string keys, string
// values, shared by every client pointed at the same backend. Implementations must be safe
// for concurrent use.
package storage

// Storage is a string key/value store.
type Storage interface {
	// GetItem returns the value for key and whether it was present.
	GetItem(key string) (string, bool, error)

	// SetItem creates or replaces the value for key.
	SetItem(key, value string) error

	// RemoveItem deletes key. Removing a missing key is not an error.
	RemoveItem(key string) error
}
