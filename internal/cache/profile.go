package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoProfile is returned when none of the candidate shell profiles exist.
var ErrNoProfile = errors.New("no shell profile found")

// Profile persists a variable as an `export NAME="value"` line in the first
// existing shell profile.
type Profile struct {
	Home string
	// Files are tried in order, relative to Home.
	Files []string
}

// DefaultProfileFiles is the ordered list of profiles considered.
var DefaultProfileFiles = []string{".bashrc", ".bash_profile", ".zshrc"}

// NewProfile returns a Profile rooted at the user's home directory.
func NewProfile() *Profile {
	home, _ := os.UserHomeDir()
	return &Profile{Home: home, Files: DefaultProfileFiles}
}

// Load always misses: a profile only takes effect in new shells.
func (p *Profile) Load(key string) (string, error) {
	return "", ErrMiss
}

func (p *Profile) Save(key, value string) error {
	path, err := p.first()
	if err != nil {
		return err
	}
	lines, mode, err := readLines(path)
	if err != nil {
		return err
	}
	lines = dropExport(lines, key)
	lines = append(lines, fmt.Sprintf("export %s=%q", key, value))
	return writeLines(path, lines, mode)
}

func (p *Profile) Remove(key string) error {
	path, err := p.first()
	if err != nil {
		if errors.Is(err, ErrNoProfile) {
			return nil
		}
		return err
	}
	lines, mode, err := readLines(path)
	if err != nil {
		return err
	}
	kept := dropExport(lines, key)
	if len(kept) == len(lines) {
		return nil
	}
	return writeLines(path, kept, mode)
}

func (p *Profile) first() (string, error) {
	if p.Home == "" {
		return "", ErrNoProfile
	}
	for _, name := range p.Files {
		path := filepath.Join(p.Home, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ErrNoProfile
}

func readLines(path string) ([]string, os.FileMode, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, 0, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	content := strings.TrimSuffix(string(data), "\n")
	if content == "" {
		return nil, info.Mode().Perm(), nil
	}
	return strings.Split(content, "\n"), info.Mode().Perm(), nil
}

func writeLines(path string, lines []string, mode os.FileMode) error {
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	return os.WriteFile(path, []byte(content), mode)
}

func dropExport(lines []string, key string) []string {
	prefix := "export " + key + "="
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(line, prefix) {
			continue
		}
		kept = append(kept, line)
	}
	return kept
}
