package store

import (
	"encoding/binary"
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/hoardlab/hoard/pkg/persist"
)

var (
	// Bucket names
	bucketAssets = []byte("assets")
	bucketMeta   = []byte("meta")

	// Meta keys
	keyTree   = []byte("tree")
	keyNextID = []byte("nextId")
)

// BoltBackend implements Backend using BoltDB. Asset records live in the
// assets bucket keyed by big-endian id; the tree and the id counter live in
// the meta bucket. Values are the same self-describing JSON documents the
// file backend writes.
type BoltBackend struct {
	db *bolt.DB
}

// NewBoltBackend creates a new BoltDB-backed store backend
func NewBoltBackend(dataDir string) (*BoltBackend, error) {
	dbPath := filepath.Join(dataDir, "hoard.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketAssets, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltBackend{db: db}, nil
}

// Close closes the database
func (b *BoltBackend) Close() error {
	return b.db.Close()
}

func assetKey(id int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(id))
	return key
}

// SaveAsset writes the asset record into the assets bucket.
func (b *BoltBackend) SaveAsset(asset *Asset) error {
	if asset.ID() == UnassignedID {
		return fmt.Errorf("asset has no id yet")
	}
	data, err := persist.Marshal(asset)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAssets).Put(assetKey(asset.ID()), data)
	})
}

// LoadAsset reads the asset record from the assets bucket.
func (b *BoltBackend) LoadAsset(id int) (*Asset, error) {
	var data []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketAssets).Get(assetKey(id))
		if raw == nil {
			return fmt.Errorf("asset %d: %w", id, ErrNotFound)
		}
		data = append([]byte{}, raw...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	value, err := persist.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	asset, ok := value.(*Asset)
	if !ok {
		return nil, fmt.Errorf("%w: record %d holds %T", ErrInvalidEntry, id, value)
	}
	return asset, nil
}

// SaveTree writes the directory tree into the meta bucket.
func (b *BoltBackend) SaveTree(tree map[string]any) error {
	data, err := persist.Marshal(tree)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(keyTree, data)
	})
}

// LoadTree reads the directory tree from the meta bucket.
func (b *BoltBackend) LoadTree() (map[string]any, error) {
	var data []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketMeta).Get(keyTree)
		if raw == nil {
			return fmt.Errorf("tree: %w", ErrNotFound)
		}
		data = append([]byte{}, raw...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	value, err := persist.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	tree, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: directory document holds %T", ErrInvalidEntry, value)
	}
	return tree, nil
}

// SaveNextID writes the id counter into the meta bucket.
func (b *BoltBackend) SaveNextID(id int) error {
	data, err := persist.Marshal(id)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(keyNextID, data)
	})
}

// LoadNextID reads the id counter from the meta bucket.
func (b *BoltBackend) LoadNextID() (int, error) {
	var data []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketMeta).Get(keyNextID)
		if raw == nil {
			return fmt.Errorf("next id: %w", ErrNotFound)
		}
		data = append([]byte{}, raw...)
		return nil
	})
	if err != nil {
		return 0, err
	}

	value, err := persist.Unmarshal(data)
	if err != nil {
		return 0, err
	}
	id, ok := value.(int)
	if !ok {
		return 0, fmt.Errorf("%w: id document holds %T", ErrInvalidEntry, value)
	}
	return id, nil
}
