//go:build !windows

package cache

// DefaultPersister returns the platform's cross-run store for environment
// variables: the user's shell profile.
func DefaultPersister() Persister {
	return NewProfile()
}
