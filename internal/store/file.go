package store

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// FileStore keeps every geofence in one YAML document.
type FileStore struct {
	path string
	mu   sync.Mutex
}

type fileDoc struct {
	Geofences []Geofence `yaml:"geofences"`
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) read() (fileDoc, error) {
	var doc fileDoc
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, errors.Wrap(err, "read geofence store")
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, errors.Wrapf(err, "parse geofence store %s", filepath.Base(s.path))
	}
	return doc, nil
}

// write replaces the file through a rename so readers never see half a
// document.
func (s *FileStore) write(doc fileDoc) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "encode geofence store")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "create store directory")
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".geofences-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	return errors.Wrap(os.Rename(tmp.Name(), s.path), "replace geofence store")
}

func (s *FileStore) SaveGeofence(ctx context.Context, g Geofence) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := g.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	replaced := false
	for i, old := range doc.Geofences {
		if old.ID == g.ID {
			if !old.CreatedAt.IsZero() {
				g.CreatedAt = old.CreatedAt
			}
			doc.Geofences[i] = g
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Geofences = append(doc.Geofences, g)
	}
	if err := s.write(doc); err != nil {
		return err
	}
	log.Debug().Str("id", g.ID).Str("path", s.path).Bool("replaced", replaced).Msg("Stored geofence")
	return nil
}

// ListGeofences returns the worksite's geofences, oldest first.
func (s *FileStore) ListGeofences(ctx context.Context, worksiteID string) ([]Geofence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	doc, err := s.read()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := []Geofence{}
	for _, g := range doc.Geofences {
		if g.WorksiteID == worksiteID {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
