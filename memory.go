package churnprep

import (
	"sync"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Releasable represents any resource that can be released to free memory.
//
// Tables read by a Pipeline hold Arrow buffers; release them when the run is
// over:
//
//	p, _ := churnprep.New(cfg)
//	defer p.Close()
type Releasable interface {
	Release()
}

// MemoryManager tracks resources and releases them in bulk. It is safe for
// concurrent use.
type MemoryManager struct {
	allocator memory.Allocator
	resources []Releasable
	mu        sync.Mutex
}

// NewMemoryManager creates a new memory manager with the given allocator.
func NewMemoryManager(allocator memory.Allocator) *MemoryManager {
	if allocator == nil {
		allocator = memory.NewGoAllocator()
	}
	return &MemoryManager{
		allocator: allocator,
		resources: make([]Releasable, 0),
	}
}

// Allocator returns the allocator tracked resources are built with.
func (m *MemoryManager) Allocator() memory.Allocator {
	return m.allocator
}

// Track adds a resource to be released by ReleaseAll.
func (m *MemoryManager) Track(resource Releasable) {
	if resource != nil {
		m.mu.Lock()
		m.resources = append(m.resources, resource)
		m.mu.Unlock()
	}
}

// Count returns the number of tracked resources.
func (m *MemoryManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.resources)
}

// ReleaseAll releases all tracked resources and clears the tracking list.
func (m *MemoryManager) ReleaseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, resource := range m.resources {
		resource.Release()
	}
	m.resources = m.resources[:0]
}
