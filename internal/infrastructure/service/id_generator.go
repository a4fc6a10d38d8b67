// Package service contains small infrastructure adapters for application ports.
package service

import (
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// IDGeneratorImpl implements command.IDGenerator with random UUIDs.
type IDGeneratorImpl struct{}

func NewIDGenerator() *IDGeneratorImpl {
	return &IDGeneratorImpl{}
}

func (g *IDGeneratorImpl) GenerateID() string {
	return uuid.New().String()
}

// SequenceIDGenerator returns predictable IDs ("<prefix>-1", "<prefix>-2", ...).
// Used by tests that assert on identifiers.
type SequenceIDGenerator struct {
	Prefix string

	mu sync.Mutex
	n  int
}

func (g *SequenceIDGenerator) GenerateID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return g.Prefix + "-" + strconv.Itoa(g.n)
}
