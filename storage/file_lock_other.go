//go:build !unix

package storage

// lockFile is a no-op where flock is unavailable; writers in separate processes may then
// lose each other's keys.
func lockFile(string) (func(), error) {
	return func() {}, nil
}
