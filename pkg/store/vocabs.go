package store

import (
	"context"

	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/value"
	"github.com/agentstation/curator/pkg/vocab"
)

var (
	_ vocab.Source      = (*Store)(nil)
	_ vocab.ShapeSource = (*Store)(nil)
)

// vocabFile is the stored form of a custom vocabulary.
type vocabFile struct {
	ID     string            `yaml:"id"`
	Type   value.Shape       `yaml:"type"`
	Labels map[string]string `yaml:"labels"`
}

// URILabels implements vocab.Source.
func (s *Store) URILabels(_ context.Context, vocabID string) (map[string]string, error) {
	v, err := s.loadVocab(vocabID)
	if err != nil {
		return nil, err
	}
	return v.Labels, nil
}

// Shape implements vocab.ShapeSource.
func (s *Store) Shape(_ context.Context, vocabID string) (value.Shape, error) {
	v, err := s.loadVocab(vocabID)
	if err != nil {
		return value.ShapeUnknown, err
	}
	return v.Type, nil
}

// SaveVocab stores a vocabulary.
func (s *Store) SaveVocab(_ context.Context, vocabID string, shape value.Shape, labels map[string]string) error {
	if vocabID == "" {
		return &errors.ValidationError{Field: "id", Message: "cannot be empty"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f := vocabFile{ID: vocabID, Type: shape, Labels: labels}
	if err := s.writeYAML(s.path(vocabsDir, vocabID, yamlExtension), f); err != nil {
		return errors.WrapResource("write", "vocabulary", vocabID, err)
	}
	return nil
}

func (s *Store) loadVocab(vocabID string) (*vocabFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var f vocabFile
	if err := s.readYAML(s.path(vocabsDir, vocabID, yamlExtension), &f); err != nil {
		if notExist(err) {
			return nil, errors.NewNotFoundError("vocabulary", vocabID)
		}
		return nil, errors.WrapResource("read", "vocabulary", vocabID, err)
	}
	return &f, nil
}
