package emu

import (
	"encoding/binary"
	"fmt"

	"github.com/sarchlab/akita/v4/mem/mem"
)

// DefaultMemorySize is the capacity used when no memory is supplied.
const DefaultMemorySize = 16 * 1024 * 1024

// Memory is the word-granular interface the core uses to reach memory. Both
// operations fail with ErrUnalignedAccess for addresses that are not word
// aligned and with ErrOutOfBounds for addresses past the end of memory.
type Memory interface {
	ReadWord(addr uint32) (uint32, error)
	WriteWord(addr uint32, value uint32) error
}

// StorageMemory is a little-endian, byte-addressable memory backed by an
// akita storage. Storage units are allocated on first touch, so large
// capacities cost nothing until used.
type StorageMemory struct {
	storage *mem.Storage
	size    uint64
}

// NewMemory creates a memory of the given capacity in bytes.
func NewMemory(size uint64) *StorageMemory {
	return &StorageMemory{
		storage: mem.NewStorage(size),
		size:    size,
	}
}

// Size returns the capacity in bytes.
func (m *StorageMemory) Size() uint64 {
	return m.size
}

// ReadWord reads an aligned 32-bit word.
func (m *StorageMemory) ReadWord(addr uint32) (uint32, error) {
	if err := m.checkWord(addr); err != nil {
		return 0, err
	}

	data, err := m.storage.Read(uint64(addr), 4)
	if err != nil {
		return 0, fmt.Errorf("read 0x%08X: %w", addr, err)
	}

	return binary.LittleEndian.Uint32(data), nil
}

// WriteWord writes an aligned 32-bit word.
func (m *StorageMemory) WriteWord(addr uint32, value uint32) error {
	if err := m.checkWord(addr); err != nil {
		return err
	}

	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, value)
	if err := m.storage.Write(uint64(addr), data); err != nil {
		return fmt.Errorf("write 0x%08X: %w", addr, err)
	}

	return nil
}

// LoadBytes copies raw bytes into memory starting at addr. It is meant for
// program loading and has no alignment requirement.
func (m *StorageMemory) LoadBytes(addr uint32, data []byte) error {
	if err := m.checkRange(addr, uint64(len(data))); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return m.storage.Write(uint64(addr), data)
}

// ReadBytes copies n bytes starting at addr out of memory.
func (m *StorageMemory) ReadBytes(addr uint32, n uint64) ([]byte, error) {
	if err := m.checkRange(addr, n); err != nil {
		return nil, err
	}
	if n == 0 {
		return []byte{}, nil
	}
	return m.storage.Read(uint64(addr), n)
}

func (m *StorageMemory) checkWord(addr uint32) error {
	if addr&0x3 != 0 {
		return fmt.Errorf("%w: 0x%08X", ErrUnalignedAccess, addr)
	}
	return m.checkRange(addr, 4)
}

func (m *StorageMemory) checkRange(addr uint32, n uint64) error {
	if uint64(addr)+n > m.size {
		return fmt.Errorf("%w: 0x%08X (+%d) beyond 0x%X", ErrOutOfBounds, addr, n, m.size)
	}
	return nil
}
