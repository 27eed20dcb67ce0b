package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hoardlab/hoard/pkg/persist"
)

// Backend persists asset records and the directory tree. Asset records are
// stored individually by id; the tree and the id counter travel as whole
// documents.
type Backend interface {
	SaveAsset(asset *Asset) error
	LoadAsset(id int) (*Asset, error)

	SaveTree(tree map[string]any) error
	LoadTree() (map[string]any, error)

	SaveNextID(id int) error
	LoadNextID() (int, error)
}

// FileBackend keeps the store in a directory of self-describing JSON files:
// directory.json for the tree, nextId.json for the id counter and one
// <id>.json per asset record.
type FileBackend struct {
	root string
}

// NewFileBackend creates a file backend rooted at dir, creating the
// directory when needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	return &FileBackend{root: dir}, nil
}

func (b *FileBackend) assetFile(id int) string {
	return filepath.Join(b.root, strconv.Itoa(id)+".json")
}

// SaveAsset writes the asset record to <id>.json.
func (b *FileBackend) SaveAsset(asset *Asset) error {
	if asset.ID() == UnassignedID {
		return fmt.Errorf("asset has no id yet")
	}
	return persist.WriteFile(b.assetFile(asset.ID()), asset)
}

// LoadAsset reads the asset record from <id>.json.
func (b *FileBackend) LoadAsset(id int) (*Asset, error) {
	value, err := persist.ReadFile(b.assetFile(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	asset, ok := value.(*Asset)
	if !ok {
		return nil, fmt.Errorf("%w: record %d holds %T", ErrInvalidEntry, id, value)
	}
	return asset, nil
}

// SaveTree writes the directory tree to directory.json.
func (b *FileBackend) SaveTree(tree map[string]any) error {
	return persist.WriteFile(filepath.Join(b.root, "directory.json"), tree)
}

// LoadTree reads the directory tree from directory.json.
func (b *FileBackend) LoadTree() (map[string]any, error) {
	value, err := persist.ReadFile(filepath.Join(b.root, "directory.json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	tree, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: directory document holds %T", ErrInvalidEntry, value)
	}
	return tree, nil
}

// SaveNextID writes the id counter to nextId.json.
func (b *FileBackend) SaveNextID(id int) error {
	return persist.WriteFile(filepath.Join(b.root, "nextId.json"), id)
}

// LoadNextID reads the id counter from nextId.json.
func (b *FileBackend) LoadNextID() (int, error) {
	value, err := persist.ReadFile(filepath.Join(b.root, "nextId.json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	id, ok := value.(int)
	if !ok {
		return 0, fmt.Errorf("%w: id document holds %T", ErrInvalidEntry, value)
	}
	return id, nil
}

// MemoryBackend keeps everything in process memory; tests and ephemeral
// stores use it.
type MemoryBackend struct {
	assets map[int][]byte
	tree   []byte
	nextID []byte
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{assets: map[int][]byte{}}
}

// SaveAsset serializes the asset record into memory.
func (b *MemoryBackend) SaveAsset(asset *Asset) error {
	if asset.ID() == UnassignedID {
		return fmt.Errorf("asset has no id yet")
	}
	raw, err := persist.Marshal(asset)
	if err != nil {
		return err
	}
	b.assets[asset.ID()] = raw
	return nil
}

// LoadAsset rebuilds the asset record from memory.
func (b *MemoryBackend) LoadAsset(id int) (*Asset, error) {
	raw, found := b.assets[id]
	if !found {
		return nil, ErrNotFound
	}
	value, err := persist.Unmarshal(raw)
	if err != nil {
		return nil, err
	}
	asset, ok := value.(*Asset)
	if !ok {
		return nil, fmt.Errorf("%w: record %d holds %T", ErrInvalidEntry, id, value)
	}
	return asset, nil
}

// SaveTree serializes the directory tree into memory.
func (b *MemoryBackend) SaveTree(tree map[string]any) error {
	raw, err := persist.Marshal(tree)
	if err != nil {
		return err
	}
	b.tree = raw
	return nil
}

// LoadTree rebuilds the directory tree from memory.
func (b *MemoryBackend) LoadTree() (map[string]any, error) {
	if b.tree == nil {
		return nil, ErrNotFound
	}
	value, err := persist.Unmarshal(b.tree)
	if err != nil {
		return nil, err
	}
	tree, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: directory document holds %T", ErrInvalidEntry, value)
	}
	return tree, nil
}

// SaveNextID serializes the id counter into memory.
func (b *MemoryBackend) SaveNextID(id int) error {
	raw, err := persist.Marshal(id)
	if err != nil {
		return err
	}
	b.nextID = raw
	return nil
}

// LoadNextID rebuilds the id counter from memory.
func (b *MemoryBackend) LoadNextID() (int, error) {
	if b.nextID == nil {
		return 0, ErrNotFound
	}
	value, err := persist.Unmarshal(b.nextID)
	if err != nil {
		return 0, err
	}
	id, ok := value.(int)
	if !ok {
		return 0, fmt.Errorf("%w: id document holds %T", ErrInvalidEntry, value)
	}
	return id, nil
}
