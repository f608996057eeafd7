package vocab

import (
	"context"
	"sync"

	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/value"
)

// MemorySource is an in-memory Source.
type MemorySource struct {
	mu     sync.RWMutex
	labels map[string]map[string]string
	shapes map[string]value.Shape
}

// NewMemorySource creates an empty MemorySource.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		labels: make(map[string]map[string]string),
		shapes: make(map[string]value.Shape),
	}
}

// Add registers a vocabulary.
func (m *MemorySource) Add(id string, shape value.Shape, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.labels[id] = labels
	m.shapes[id] = shape
}

// URILabels implements Source.
func (m *MemorySource) URILabels(_ context.Context, vocabID string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	labels, ok := m.labels[vocabID]
	if !ok {
		return nil, errors.NewNotFoundError("vocabulary", vocabID)
	}
	return labels, nil
}

// Shape implements ShapeSource.
func (m *MemorySource) Shape(_ context.Context, vocabID string) (value.Shape, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.shapes[vocabID], nil
}
