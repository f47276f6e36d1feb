package storage

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"cliconfig-go/internal/config"
)

// DatabaseFileName is the bbolt file inside the data directory
const DatabaseFileName = "cliconfig.db"

// BoltDB wraps the bbolt database holding every persisted namespace.
type BoltDB struct {
	db     *bbolt.DB
	path   string
	logger *zap.SugaredLogger
}

// NewBoltDB opens (creating if needed) <dataDir>/cliconfig.db and makes sure
// the buckets and schema version exist.
func NewBoltDB(dataDir string, logger *zap.SugaredLogger) (*BoltDB, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	path := filepath.Join(dataDir, DatabaseFileName)
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: config.DatabaseOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s (is another cliconfig running?): %w", path, err)
	}

	b := &BoltDB{db: db, path: path, logger: logger}
	if err := b.initBuckets(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debugw("Opened database", "path", path)
	return b, nil
}

// OpenBoltFile opens an existing database file read-only, such as a copy
// written by Backup.
func OpenBoltFile(path string, logger *zap.SugaredLogger) (*BoltDB, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: config.DatabaseOpenTimeout, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	err = db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(NamespacesBucket)) == nil || tx.Bucket([]byte(MetaBucket)) == nil {
			return fmt.Errorf("%s is not a cliconfig database", path)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	logger.Debugw("Opened database read-only", "path", path)
	return &BoltDB{db: db, path: path, logger: logger}, nil
}

func (b *BoltDB) initBuckets() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{NamespacesBucket, MetaBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}

		meta := tx.Bucket([]byte(MetaBucket))
		if meta.Get([]byte(SchemaVersionKey)) == nil {
			buf := make([]byte, 8)
			binary.BigEndian.PutUint64(buf, CurrentSchemaVersion)
			if err := meta.Put([]byte(SchemaVersionKey), buf); err != nil {
				return fmt.Errorf("failed to write schema version: %w", err)
			}
		}
		return nil
	})
}

// Close closes the database
func (b *BoltDB) Close() error {
	return b.db.Close()
}

// Path returns the database file path
func (b *BoltDB) Path() string {
	return b.path
}

// Get returns a copy of the raw value stored for namespace, or ErrNotFound.
func (b *BoltDB) Get(namespace string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(NamespacesBucket)).Get([]byte(namespace))
		if v == nil {
			return ErrNotFound
		}
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Put replaces the raw value stored for namespace.
func (b *BoltDB) Put(namespace string, value []byte) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(NamespacesBucket)).Put([]byte(namespace), value)
	})
}

// Delete removes namespace. Deleting a missing namespace is not an error.
func (b *BoltDB) Delete(namespace string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(NamespacesBucket)).Delete([]byte(namespace))
	})
}

// Namespaces lists the stored namespaces in name order.
func (b *BoltDB) Namespaces() ([]string, error) {
	var names []string
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(NamespacesBucket)).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// GetSchemaVersion returns the stored schema version
func (b *BoltDB) GetSchemaVersion() (uint64, error) {
	var version uint64
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(MetaBucket)).Get([]byte(SchemaVersionKey))
		if len(v) != 8 {
			return fmt.Errorf("schema version missing or corrupt")
		}
		version = binary.BigEndian.Uint64(v)
		return nil
	})
	return version, err
}

// Backup writes a consistent copy of the database to destPath
func (b *BoltDB) Backup(destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0700); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}
	return b.db.View(func(tx *bbolt.Tx) error {
		return tx.CopyFile(destPath, 0600)
	})
}
