package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/dmitrijs2005/miarbol/internal/client/client"
	"github.com/dmitrijs2005/miarbol/internal/client/metrics"
	"github.com/dmitrijs2005/miarbol/internal/client/models"
	"github.com/dmitrijs2005/miarbol/internal/client/notify"
	"github.com/dmitrijs2005/miarbol/internal/common"
	"github.com/dmitrijs2005/miarbol/internal/logging"
)

const (
	regionTrees   = "trees"
	regionMarkers = "markers"
)

// TreeService caches the tree list and the marker projection.
//
// Reads never fail: LoadTrees and LoadTreeMarkers degrade to an empty list
// and GetTreeByID falls back to the cached list. Writes patch the cached
// list, recompute stats and invalidate the filter key so the next LoadTrees
// goes to the backend.
//
// Concurrent LoadTrees calls for a key that is already being fetched do not
// wait for that fetch: they get the list as it is now, possibly empty.
type TreeService interface {
	LoadTrees(ctx context.Context, f models.TreeFilter, force bool) []models.Tree
	LoadTreeMarkers(ctx context.Context, force bool) []models.TreeMarker
	PlantTree(ctx context.Context, in models.NewTreeInput) (*models.Tree, error)
	UpdateTreeStatus(ctx context.Context, id models.ID, status models.TreeStatus) (*models.Tree, error)
	GetTreeByID(ctx context.Context, id models.ID) (*models.Tree, error)
	DeleteTree(ctx context.Context, id models.ID) error

	Trees() []models.Tree
	Markers() []models.TreeMarker
	Stats() models.TreeStats
	// Reset drops everything cached for the current session. Loads still in
	// flight when Reset is called do not repopulate the cache.
	Reset()
}

type treeService struct {
	api      client.TreeAPI
	notifier notify.Notifier
	log      logging.Logger
	metrics  *metrics.Metrics

	mu    sync.Mutex
	trees []models.Tree
	stats models.TreeStats

	loaded     bool
	loadedKey  string
	loading    bool
	loadingKey string

	markers        []models.TreeMarker
	markersLoading bool

	// gen changes on every Reset
	gen uint64
}

func NewTreeService(api client.TreeAPI, n notify.Notifier, log logging.Logger, m *metrics.Metrics) TreeService {
	if n == nil {
		n = notify.Discard
	}
	if log == nil {
		log = logging.Nop()
	}
	return &treeService{api: api, notifier: n, log: log, metrics: m}
}

func (s *treeService) LoadTrees(ctx context.Context, f models.TreeFilter, force bool) []models.Tree {

	key := f.Key()

	s.mu.Lock()
	if !force && s.loaded && s.loadedKey == key {
		s.mu.Unlock()
		s.metrics.CacheLookup(regionTrees, metrics.CacheHit)
		return s.Trees()
	}
	if s.loading && s.loadingKey == key {
		s.mu.Unlock()
		s.metrics.CacheLookup(regionTrees, metrics.CacheInFlight)
		return s.Trees()
	}
	s.loading, s.loadingKey = true, key
	gen := s.gen
	s.mu.Unlock()

	s.metrics.CacheLookup(regionTrees, metrics.CacheMiss)
	trees, err := s.api.ListTrees(ctx, f)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.log.Debug(ctx, "tree list discarded after reset", "filter", key)
		if err != nil {
			return []models.Tree{}
		}
		return nonNil(slices.Clone(trees))
	}
	if s.loadingKey == key {
		s.loading = false
	}
	if err != nil {
		s.trees = nil
		s.loaded = false
		s.mu.Unlock()

		s.log.Warn(ctx, "load trees", "filter", key, "error", err)
		s.notifier.Notify(ctx, notify.Notification{
			Level:       notify.LevelError,
			Title:       "Error al cargar los árboles",
			Description: client.Describe(err, common.DefaultErrorMessage),
		})
		return []models.Tree{}
	}

	s.trees = trees
	s.loaded, s.loadedKey = true, key
	if f.IsEmpty() {
		s.stats = models.ComputeStats(trees)
	}
	out := slices.Clone(s.trees)
	s.mu.Unlock()

	return nonNil(out)
}

func (s *treeService) LoadTreeMarkers(ctx context.Context, force bool) []models.TreeMarker {

	s.mu.Lock()
	if !force && len(s.markers) > 0 {
		out := slices.Clone(s.markers)
		s.mu.Unlock()
		s.metrics.CacheLookup(regionMarkers, metrics.CacheHit)
		return out
	}
	if s.markersLoading {
		out := slices.Clone(s.markers)
		s.mu.Unlock()
		s.metrics.CacheLookup(regionMarkers, metrics.CacheInFlight)
		return nonNil(out)
	}
	s.markersLoading = true
	gen := s.gen
	s.mu.Unlock()

	s.metrics.CacheLookup(regionMarkers, metrics.CacheMiss)
	markers, err := s.api.ListTreeMarkers(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		if err != nil {
			return []models.TreeMarker{}
		}
		return nonNil(slices.Clone(markers))
	}
	s.markersLoading = false
	if err != nil {
		s.markers = nil
		s.log.Debug(ctx, "load tree markers", "error", err)
		return []models.TreeMarker{}
	}
	s.markers = markers
	return nonNil(slices.Clone(markers))
}

func (s *treeService) PlantTree(ctx context.Context, in models.NewTreeInput) (*models.Tree, error) {

	t, err := s.api.CreateTree(ctx, in)
	if err != nil {
		s.writeFailed(ctx, "Error al plantar el árbol", err)
		return nil, err
	}

	s.mu.Lock()
	s.trees = append([]models.Tree{*t}, s.trees...)
	s.stats = models.ComputeStats(s.trees)
	s.loaded = false
	s.mu.Unlock()

	s.notifier.Notify(ctx, notify.Notification{Level: notify.LevelSuccess, Title: "Árbol plantado", Description: t.Name})
	c := *t
	return &c, nil
}

func (s *treeService) UpdateTreeStatus(ctx context.Context, id models.ID, status models.TreeStatus) (*models.Tree, error) {

	updated, err := s.api.UpdateTreeStatus(ctx, id, status)
	if err != nil {
		s.writeFailed(ctx, "Error al actualizar el árbol", err)
		return nil, err
	}

	s.mu.Lock()
	for i := range s.trees {
		if s.trees[i].ID != id {
			continue
		}
		if updated.ID == "" {
			// partial answer: keep the cached record, apply the new status
			patched := s.trees[i]
			patched.Status = status
			updated = &patched
		}
		s.trees[i] = *updated
	}
	s.stats = models.ComputeStats(s.trees)
	s.loaded = false
	s.mu.Unlock()

	s.notifier.Notify(ctx, notify.Notification{Level: notify.LevelSuccess, Title: "Estado actualizado", Description: string(status)})
	c := *updated
	return &c, nil
}

// GetTreeByID asks the backend and falls back to the cached list.
func (s *treeService) GetTreeByID(ctx context.Context, id models.ID) (*models.Tree, error) {

	t, err := s.api.GetTree(ctx, id)
	if err == nil {
		return t, nil
	}

	if cached, ok := s.cached(id); ok {
		s.log.Info(ctx, "tree served from cache", "id", id, "error", err)
		return &cached, nil
	}

	s.notifier.Notify(ctx, notify.Notification{
		Level:       notify.LevelError,
		Title:       "Árbol no encontrado",
		Description: client.Describe(err, common.DefaultErrorMessage),
	})
	if errors.Is(err, client.ErrNotFound) {
		return nil, err
	}
	return nil, fmt.Errorf("%w: tree %s: %w", client.ErrNotFound, id, err)
}

func (s *treeService) DeleteTree(ctx context.Context, id models.ID) error {

	if err := s.api.DeleteTree(ctx, id); err != nil {
		s.writeFailed(ctx, "Error al eliminar el árbol", err)
		return err
	}

	s.mu.Lock()
	s.trees = slices.DeleteFunc(s.trees, func(t models.Tree) bool { return t.ID == id })
	s.markers = slices.DeleteFunc(s.markers, func(m models.TreeMarker) bool { return m.ID == id })
	s.stats = models.ComputeStats(s.trees)
	s.loaded = false
	s.mu.Unlock()

	s.notifier.Notify(ctx, notify.Notification{Level: notify.LevelSuccess, Title: "Árbol eliminado", Description: string(id)})
	return nil
}

func (s *treeService) Trees() []models.Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	return nonNil(slices.Clone(s.trees))
}

func (s *treeService) Markers() []models.TreeMarker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return nonNil(slices.Clone(s.markers))
}

func (s *treeService) Stats() models.TreeStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *treeService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.trees = nil
	s.stats = models.TreeStats{}
	s.loaded, s.loadedKey = false, ""
	s.loading, s.loadingKey = false, ""
	s.markers = nil
	s.markersLoading = false
}

func (s *treeService) cached(id models.ID) (models.Tree, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.trees {
		if t.ID == id {
			return t, true
		}
	}
	return models.Tree{}, false
}

func (s *treeService) writeFailed(ctx context.Context, title string, err error) {
	s.log.Warn(ctx, title, "error", err)
	s.notifier.Notify(ctx, notify.Notification{
		Level:       notify.LevelError,
		Title:       title,
		Description: client.Describe(err, common.DefaultErrorMessage),
	})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
