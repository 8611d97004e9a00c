// Package catalog is an in-memory store of named sky objects. It backs the
// alignment advisor's CatalogLookup collaborator; persistence, observation
// logs, and live ephemeris updates live upstream of it.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/skyfoundry/mount-commander/model"
)

var (
	// ErrNotFound reports a lookup for an object the store does not hold.
	ErrNotFound = errors.New("catalog object not found")
	// ErrDuplicate reports an Add for a name already present.
	ErrDuplicate = errors.New("catalog object already present")
)

// Store holds catalog objects keyed by name, case-insensitively. Safe for
// concurrent use.
type Store struct {
	mu      sync.RWMutex
	objects map[string]model.CatalogObject
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{objects: make(map[string]model.CatalogObject)}
}

// Add inserts an object. Names must be unique regardless of case.
func (s *Store) Add(obj model.CatalogObject) error {
	if obj.Name == "" {
		return errors.New("catalog: empty object name")
	}
	key := normalize(obj.Name)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, obj.Name)
	}
	s.objects[key] = obj
	return nil
}

// Upsert inserts or replaces an object, for moving bodies whose positions are
// refreshed per query time.
func (s *Store) Upsert(obj model.CatalogObject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[normalize(obj.Name)] = obj
}

// ByName returns the object with the given name.
func (s *Store) ByName(name string) (model.CatalogObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[normalize(name)]
	if !ok {
		return model.CatalogObject{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return obj, nil
}

// ByType returns all objects of the given type, sorted by name.
func (s *Store) ByType(t model.ObjectType) []model.CatalogObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.CatalogObject
	for _, obj := range s.objects {
		if obj.Type == t {
			out = append(out, obj)
		}
	}
	sortByName(out)
	return out
}

// BrighterThan returns all objects at or below the given magnitude (smaller
// is brighter), sorted by name.
func (s *Store) BrighterThan(magnitude float64) []model.CatalogObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.CatalogObject
	for _, obj := range s.objects {
		if obj.Magnitude <= magnitude {
			out = append(out, obj)
		}
	}
	sortByName(out)
	return out
}

// All returns every object, sorted by name.
func (s *Store) All() []model.CatalogObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.CatalogObject, 0, len(s.objects))
	for _, obj := range s.objects {
		out = append(out, obj)
	}
	sortByName(out)
	return out
}

// Len returns the number of stored objects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func sortByName(objs []model.CatalogObject) {
	sort.Slice(objs, func(i, j int) bool { return objs[i].Name < objs[j].Name })
}
