package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lovincyrus/bwcreds/internal/crypto"
	"github.com/lovincyrus/bwcreds/internal/logging"
	"github.com/lovincyrus/bwcreds/internal/store"
)

// Store keeps values sealed with a key derived from the master password in
// the local state database.
type Store struct {
	db      *store.DB
	rootKey []byte
	salt    []byte
	logger  *log.Logger
}

// NewStore derives the at-rest key and returns a cache backed by db.
func NewStore(db *store.DB, masterPassword string, logger *log.Logger) (*Store, error) {
	if masterPassword == "" {
		return nil, errors.New("store cache requires the master password")
	}
	salt, err := db.Salt()
	if err != nil {
		return nil, fmt.Errorf("loading salt: %w", err)
	}
	pw := []byte(masterPassword)
	root := crypto.DeriveRootKey(pw, salt)
	crypto.Wipe(pw)
	crypto.LockMemory(root)
	if logger == nil {
		logger = logging.Discard()
	}
	return &Store{db: db, rootKey: root, salt: salt, logger: logger}, nil
}

func (s *Store) entryKey(key string) ([]byte, error) {
	if s.rootKey == nil {
		return nil, errors.New("store cache is closed")
	}
	return crypto.DeriveEntryKey(s.rootKey, s.salt, key)
}

func (s *Store) Get(key string) (string, error) {
	e, err := s.db.GetEntry(key)
	if err != nil {
		return "", err
	}
	if e == nil {
		return "", ErrMiss
	}
	k, err := s.entryKey(key)
	if err != nil {
		return "", err
	}
	defer crypto.Wipe(k)

	plaintext, err := crypto.Open(k, e.Value, []byte(key))
	if err != nil {
		// Sealed under another master password; unusable either way.
		s.logger.Warn("cached entry could not be decrypted, dropping it", "key", key, "err", err)
		if _, derr := s.db.DeleteEntry(key); derr != nil {
			s.logger.Warn("dropping undecryptable cache entry failed", "key", key, "err", derr)
		}
		return "", fmt.Errorf("%w: %v", ErrMiss, err)
	}
	return string(plaintext), nil
}

func (s *Store) Put(key, value string) error {
	if value == "" {
		return nil
	}
	k, err := s.entryKey(key)
	if err != nil {
		return err
	}
	defer crypto.Wipe(k)

	sealed, err := crypto.Seal(k, []byte(value), []byte(key))
	if err != nil {
		return err
	}
	return s.db.PutEntry(store.Entry{Key: key, Value: sealed, UpdatedAt: time.Now()})
}

func (s *Store) Delete(key string) error {
	_, err := s.db.DeleteEntry(key)
	return err
}

// Close zeroes the derived key. The database is owned by the caller.
func (s *Store) Close() {
	crypto.UnlockMemory(s.rootKey)
	crypto.Wipe(s.rootKey)
	s.rootKey = nil
}
