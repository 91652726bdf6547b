package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mnemonic-no/grafeo-sub002/pkg/graph"
	"github.com/mnemonic-no/grafeo-sub002/pkg/models"
	"github.com/mnemonic-no/grafeo-sub002/pkg/repositories"
)

// typeResolver resolves types through an in-process map, then the optional shared
// cache, then the repository. Types are immutable once created, so positive lookups
// are kept in process for the life of the resolver. Misses are never cached.
type typeResolver struct {
	repo   repositories.TypeRepository
	cache  TypeCache
	ttl    time.Duration
	logger *zap.Logger

	mu          sync.RWMutex
	objectTypes map[uuid.UUID]*models.ObjectTypeStruct
	factTypes   map[uuid.UUID]*models.FactTypeStruct
	factTypeIDs map[string]uuid.UUID
}

// NewTypeResolver creates a TypeResolver shared by all requests. cache may be nil.
func NewTypeResolver(repo repositories.TypeRepository, cache TypeCache, ttl time.Duration, logger *zap.Logger) graph.TypeResolver {
	return &typeResolver{
		repo:        repo,
		cache:       cache,
		ttl:         ttl,
		logger:      logger.Named("type-resolver"),
		objectTypes: make(map[uuid.UUID]*models.ObjectTypeStruct),
		factTypes:   make(map[uuid.UUID]*models.FactTypeStruct),
		factTypeIDs: make(map[string]uuid.UUID),
	}
}

var _ graph.TypeResolver = (*typeResolver)(nil)

func (r *typeResolver) ToObjectTypeStruct(ctx context.Context, id uuid.UUID) (*models.ObjectTypeStruct, error) {
	r.mu.RLock()
	t, ok := r.objectTypes[id]
	r.mu.RUnlock()
	if ok {
		return t, nil
	}

	key := "object_type:" + id.String()
	t = &models.ObjectTypeStruct{}
	if r.fromCache(ctx, key, t) {
		r.rememberObjectType(t)
		return t, nil
	}

	t, err := r.repo.GetObjectType(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve object type %s: %w", id, err)
	}
	if t == nil {
		return nil, nil
	}

	r.toCache(ctx, key, t)
	r.rememberObjectType(t)
	return t, nil
}

func (r *typeResolver) ToFactTypeStruct(ctx context.Context, id uuid.UUID) (*models.FactTypeStruct, error) {
	r.mu.RLock()
	t, ok := r.factTypes[id]
	r.mu.RUnlock()
	if ok {
		return t, nil
	}

	key := "fact_type:" + id.String()
	t = &models.FactTypeStruct{}
	if r.fromCache(ctx, key, t) {
		r.rememberFactType(t)
		return t, nil
	}

	t, err := r.repo.GetFactType(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve fact type %s: %w", id, err)
	}
	if t == nil {
		return nil, nil
	}

	r.toCache(ctx, key, t)
	r.rememberFactType(t)
	return t, nil
}

// FactTypeNamesToIDs resolves names in order and silently drops unknown ones.
func (r *typeResolver) FactTypeNamesToIDs(ctx context.Context, names []string) ([]uuid.UUID, error) {
	resolved := make(map[string]uuid.UUID, len(names))
	var missing []string

	r.mu.RLock()
	for _, name := range names {
		if id, ok := r.factTypeIDs[name]; ok {
			resolved[name] = id
		}
	}
	r.mu.RUnlock()

	for _, name := range names {
		if _, ok := resolved[name]; ok {
			continue
		}
		t := &models.FactTypeStruct{}
		if r.fromCache(ctx, "fact_type_name:"+name, t) {
			r.rememberFactType(t)
			resolved[name] = t.ID
			continue
		}
		missing = append(missing, name)
	}

	if len(missing) > 0 {
		types, err := r.repo.GetFactTypesByNames(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve fact type names: %w", err)
		}
		for _, t := range types {
			r.toCache(ctx, "fact_type_name:"+t.Name, t)
			r.rememberFactType(t)
			resolved[t.Name] = t.ID
		}
	}

	ids := make([]uuid.UUID, 0, len(names))
	seen := make(map[uuid.UUID]bool, len(names))
	for _, name := range names {
		id, ok := resolved[name]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *typeResolver) rememberObjectType(t *models.ObjectTypeStruct) {
	r.mu.Lock()
	r.objectTypes[t.ID] = t
	r.mu.Unlock()
}

func (r *typeResolver) rememberFactType(t *models.FactTypeStruct) {
	r.mu.Lock()
	r.factTypes[t.ID] = t
	r.factTypeIDs[t.Name] = t.ID
	r.mu.Unlock()
}

// fromCache decodes a shared cache entry into target. Cache failures are logged and
// treated as misses.
func (r *typeResolver) fromCache(ctx context.Context, key string, target any) bool {
	if r.cache == nil {
		return false
	}
	value, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn("Type cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(value), target); err != nil {
		r.logger.Warn("Discarding malformed type cache entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (r *typeResolver) toCache(ctx context.Context, key string, value any) {
	if r.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, string(data), r.ttl); err != nil {
		r.logger.Warn("Type cache write failed", zap.String("key", key), zap.Error(err))
	}
}
