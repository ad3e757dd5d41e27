//go:build windows

package cache

import (
	"errors"
	"os/exec"

	"golang.org/x/sys/windows/registry"
)

// DefaultPersister returns the platform's cross-run store for environment
// variables: the user-level environment in the registry.
func DefaultPersister() Persister {
	return Registry{}
}

// Registry persists variables under HKCU\Environment.
type Registry struct{}

const envKeyPath = `Environment`

func (Registry) Load(key string) (string, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, envKeyPath, registry.QUERY_VALUE)
	if err != nil {
		return "", err
	}
	defer k.Close()
	v, _, err := k.GetStringValue(key)
	if errors.Is(err, registry.ErrNotExist) {
		return "", ErrMiss
	}
	return v, err
}

// Save writes the registry value directly and also runs setx, which
// broadcasts the change to running shells.
func (Registry) Save(key, value string) error {
	k, err := registry.OpenKey(registry.CURRENT_USER, envKeyPath, registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer k.Close()
	if err := k.SetStringValue(key, value); err != nil {
		return err
	}
	return exec.Command("setx", key, value).Run()
}

func (Registry) Remove(key string) error {
	k, err := registry.OpenKey(registry.CURRENT_USER, envKeyPath, registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer k.Close()
	if err := k.DeleteValue(key); err != nil && !errors.Is(err, registry.ErrNotExist) {
		return err
	}
	return nil
}
