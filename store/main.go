// Package store keeps named scenario snapshots in a buntdb file.
package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/buntdb"
	"go.uber.org/zap"
	"nyiyui.ca/hato/railroad/doc"
	"nyiyui.ca/hato/railroad/tal"
)

var (
	ErrNotFound    = errors.New("snapshot not found")
	ErrInvalidName = errors.New("invalid snapshot name")
)

const (
	keyPrefix = "snapshot:"
	keySuffix = ":doc"
)

type Store struct {
	db *buntdb.DB
}

// Open opens (or creates) the database at path. ":memory:" keeps it in memory.
func Open(path string) (*Store, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	err = db.SetConfig(buntdb.Config{
		SyncPolicy:           buntdb.Always,
		AutoShrinkPercentage: 100,
		AutoShrinkMinSize:    32 * 1024 * 1024,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("configure %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func key(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, ":*?") {
		return "", fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return keyPrefix + name + keySuffix, nil
}

// Save stores s under name, replacing any previous snapshot of that name.
func (s *Store) Save(name string, sc tal.Scenario) error {
	data, err := doc.Encode(sc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return s.SaveRaw(name, data)
}

// SaveRaw stores an encoded document after checking that it decodes.
func (s *Store) SaveRaw(name string, data []byte) error {
	k, err := key(name)
	if err != nil {
		return err
	}
	if _, err := doc.Decode(data); err != nil {
		return fmt.Errorf("snapshot %s: %w", name, err)
	}
	return s.db.Update(func(tx *buntdb.Tx) error {
		_, replaced, err := tx.Set(k, string(data), nil)
		if err != nil {
			return err
		}
		zap.S().Debugw("saved snapshot", "name", name, "replaced", replaced, "bytes", len(data))
		return nil
	})
}

// LoadRaw returns the stored document.
func (s *Store) LoadRaw(name string) ([]byte, error) {
	k, err := key(name)
	if err != nil {
		return nil, err
	}
	var value string
	err = s.db.View(func(tx *buntdb.Tx) error {
		value, err = tx.Get(k)
		return err
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

// Load returns the stored scenario.
func (s *Store) Load(name string) (tal.Scenario, error) {
	data, err := s.LoadRaw(name)
	if err != nil {
		return tal.Scenario{}, err
	}
	sc, err := doc.Decode(data)
	if err != nil {
		return tal.Scenario{}, fmt.Errorf("snapshot %s: %w", name, err)
	}
	return sc, nil
}

// List returns the snapshot names in key order.
func (s *Store) List() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(keyPrefix+"*"+keySuffix, func(k, _ string) bool {
			names = append(names, k[len(keyPrefix):len(k)-len(keySuffix)])
			return true
		})
	})
	return names, err
}

// Delete removes a snapshot.
func (s *Store) Delete(name string) error {
	k, err := key(name)
	if err != nil {
		return err
	}
	err = s.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(k)
		return err
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return err
}
