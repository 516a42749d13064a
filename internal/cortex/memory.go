package cortex

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
)

// MemoryBlock is one fixed-size tensor buffer owned by the engine.
type MemoryBlock struct {
	ID   string
	Data []float64
}

// BlockAllocator reserves the backing store for one block.
type BlockAllocator interface {
	Allocate(size int) ([]float64, error)
}

// AllocatorFunc adapts a function to BlockAllocator.
type AllocatorFunc func(size int) ([]float64, error)

func (f AllocatorFunc) Allocate(size int) ([]float64, error) {
	return f(size)
}

type heapAllocator struct{}

func (heapAllocator) Allocate(size int) ([]float64, error) {
	return make([]float64, size), nil
}

// BlockID names block i, e.g. MEM_BLOCK_0x000A.
func BlockID(i int) string {
	return fmt.Sprintf("MEM_BLOCK_0x%04X", i)
}

// allocate reserves every block or none.
func (e *Engine) allocate() error {
	n, size := e.cfg.MemoryBlocks, e.cfg.BlockSize
	staged := make(map[string]*MemoryBlock, n)
	for i := 0; i < n; i++ {
		id := BlockID(i)
		data, err := e.alloc.Allocate(size)
		if err == nil && len(data) != size {
			err = fmt.Errorf("short block: got %d of %d elements", len(data), size)
		}
		if err != nil {
			e.log.WithLevel(zerolog.FatalLevel).Err(err).Str("block", id).Msg("Memory allocation failed")
			return fmt.Errorf("%w: %s: %w", ErrAllocation, id, err)
		}
		staged[id] = &MemoryBlock{ID: id, Data: data}
		e.log.Debug().Msgf("Allocated %s - [OK]", id)
	}

	e.mu.Lock()
	e.memory = staged
	e.mu.Unlock()
	return nil
}

// MemoryBlockCount returns the number of reserved blocks.
func (e *Engine) MemoryBlockCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.memory)
}

// MemoryBlockIDs returns block identifiers in ascending order.
func (e *Engine) MemoryBlockIDs() []string {
	e.mu.RLock()
	ids := make([]string, 0, len(e.memory))
	for id := range e.memory {
		ids = append(ids, id)
	}
	e.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// MemoryBlockSize returns the element count of block id.
func (e *Engine) MemoryBlockSize(id string) (int, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, ok := e.memory[id]
	if !ok {
		return 0, false
	}
	return len(b.Data), true
}
