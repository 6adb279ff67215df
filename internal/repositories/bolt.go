package repositories

import (
	"bytes"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var entriesBucket = []byte("entries")

// BoltMedium stores record values in a single bbolt bucket.
type BoltMedium struct {
	db *bolt.DB
}

// OpenBoltMedium opens (creating if needed) the bbolt file at path.
func OpenBoltMedium(path string) (*BoltMedium, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt file: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(entriesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &BoltMedium{db: db}, nil
}

func (m *BoltMedium) Get(key string) (string, bool, error) {
	var (
		value string
		ok    bool
	)
	err := m.db.View(func(tx *bolt.Tx) error {
		// Bytes returned by Get are only valid inside the transaction.
		if v := tx.Bucket(entriesBucket).Get([]byte(key)); v != nil {
			value, ok = string(v), true
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to get entry: %w", err)
	}
	return value, ok, nil
}

func (m *BoltMedium) Set(key, value string) error {
	err := m.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(entriesBucket).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("failed to put entry: %w", err)
	}
	return nil
}

// Keys returns every key starting with prefix, in byte order
func (m *BoltMedium) Keys(prefix string) ([]string, error) {
	keys := []string{}
	p := []byte(prefix)

	err := m.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(entriesBucket).Cursor()
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return keys, nil
}

// Delete removes the entry under key. Missing keys are ignored.
func (m *BoltMedium) Delete(key string) error {
	err := m.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(entriesBucket).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

// Close releases the bolt file lock.
func (m *BoltMedium) Close() error {
	return m.db.Close()
}
