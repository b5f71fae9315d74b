package assetid

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Generator mints new identifiers.
type Generator interface {
	NewID() (ID, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func() (ID, error)

// NewID implements Generator.
func (f GeneratorFunc) NewID() (ID, error) {
	return f()
}

type randomGenerator struct{}

func (randomGenerator) NewID() (ID, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return Nil, fmt.Errorf("assetid: random source: %w", err)
	}
	return ID(u), nil
}

// Random mints version 4 UUIDs from crypto/rand.
var Random Generator = randomGenerator{}

// Counter is a deterministic Generator. The high 8 bytes hold the seed and the
// low 8 bytes a big-endian counter starting at 1. Safe for concurrent use.
type Counter struct {
	mu   sync.Mutex
	seed uint64
	next uint64
}

// NewCounter returns a Counter for the given seed.
func NewCounter(seed uint64) *Counter {
	return &Counter{seed: seed, next: 1}
}

// NewID implements Generator.
func (c *Counter) NewID() (ID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var id ID
	binary.BigEndian.PutUint64(id[:8], c.seed)
	binary.BigEndian.PutUint64(id[8:], c.next)
	c.next++
	return id, nil
}

// Sequence returns a Generator that yields ids in order and then repeats the
// last one forever. Used to provoke collisions in tests.
func Sequence(ids ...ID) Generator {
	var mu sync.Mutex
	i := 0
	return GeneratorFunc(func() (ID, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(ids) == 0 {
			return Nil, nil
		}
		id := ids[min(i, len(ids)-1)]
		i++
		return id, nil
	})
}
