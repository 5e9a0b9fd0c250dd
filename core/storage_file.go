package core

// File-backed storage region for host-side tooling. The whole region is read
// into memory at open and written back as a single unit on Commit, matching
// the host commit model: an invocation that fails is simply never committed.

import (
	"fmt"
	"os"
)

// FileStorage is a StorageAPI backed by a region file.
type FileStorage struct {
	path string
	data []byte
}

// OpenFileStorage loads the region file at path, creating a zeroed region of
// size bytes when the file does not exist yet. An existing file must match
// size exactly; the region length is constant for a given contract.
func OpenFileStorage(path string, size uint32) (*FileStorage, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &FileStorage{path: path, data: make([]byte, size)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open region: %w", err)
	}
	if uint32(len(raw)) != size {
		return nil, fmt.Errorf("region %s is %d bytes, expected %d", path, len(raw), size)
	}
	return &FileStorage{path: path, data: raw}, nil
}

// Read implements StorageAPI.
func (f *FileStorage) Read(offset Offset, length uint32) ([]byte, error) {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(f.data)) {
		return nil, fmt.Errorf("%w: file read [%d, %d)", ErrOutOfBounds, offset, end)
	}
	out := make([]byte, length)
	copy(out, f.data[offset:end])
	return out, nil
}

// Write implements StorageAPI.
func (f *FileStorage) Write(offset Offset, data []byte) error {
	end := uint64(offset) + uint64(len(data))
	if end > uint64(len(f.data)) {
		return fmt.Errorf("%w: file write [%d, %d)", ErrOutOfBounds, offset, end)
	}
	copy(f.data[offset:end], data)
	return nil
}

// Size implements StorageAPI.
func (f *FileStorage) Size() uint32 { return uint32(len(f.data)) }

// Commit persists the region to disk. Callers invoke it only after a
// successful invocation; skipping it discards the invocation's mutations.
func (f *FileStorage) Commit() error {
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, f.data, 0o600); err != nil {
		return fmt.Errorf("commit region: %w", err)
	}
	return os.Rename(tmp, f.path)
}
