package modelcache

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	// Packages
	llmstream "github.com/mutablelogic/go-llmstream"
	opt "github.com/mutablelogic/go-llmstream/pkg/opt"
	schema "github.com/mutablelogic/go-llmstream/pkg/schema"
	types "github.com/mutablelogic/go-server/pkg/types"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type modelts struct {
	ts    time.Time
	model schema.Model
}

type ModelCache struct {
	sync.Mutex
	ttl   time.Duration
	model map[string]modelts

	// Full listing, cached separately so single-model fetches never
	// masquerade as a complete list
	list   []schema.Model
	listed time.Time
}

type GetModelFunc func(context.Context, string) (*schema.Model, error)
type ListModelsFunc func(context.Context, ...opt.Opt) ([]schema.Model, error)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func NewModelCache(ttl time.Duration, cap int) *ModelCache {
	self := new(ModelCache)

	// Set the TTL for each model
	if ttl > 0 {
		self.ttl = ttl
	}

	// Set model cache capacity
	self.model = make(map[string]modelts, cap)

	// Return the model cache
	return self
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (mc *ModelCache) GetModel(ctx context.Context, name string, fn GetModelFunc) (*schema.Model, error) {
	mc.Lock()
	defer mc.Unlock()

	// Cached model
	if entry, ok := mc.model[name]; ok {
		if time.Since(entry.ts) < mc.ttl {
			return types.Ptr(entry.model), nil
		}
		// Expired entry: prune before fetching
		delete(mc.model, name)
	}

	// Fetch model
	model, err := fn(ctx, name)
	if err == nil {
		mc.model[model.Name] = modelts{ts: time.Now(), model: types.Value(model)}
	} else {
		// If model no longer exists, ensure cache is invalidated
		if errors.Is(err, llmstream.ErrNotFound) {
			delete(mc.model, name)
		}
		return nil, err
	}

	// Return model
	return model, err
}

func (mc *ModelCache) ListModels(ctx context.Context, opts []opt.Opt, fn ListModelsFunc) ([]schema.Model, error) {
	mc.Lock()
	defer mc.Unlock()

	// A previous full listing which has not expired is served as-is
	if mc.list != nil && time.Since(mc.listed) < mc.ttl {
		cached := make([]schema.Model, len(mc.list))
		copy(cached, mc.list)
		return cached, nil
	}

	// Fetch models
	models, err := fn(ctx, opts...)
	if err != nil {
		return nil, err
	}

	// Sort models by name
	sort.Slice(models, func(i, j int) bool { return models[i].Name < models[j].Name })

	// Cache the listing and refresh the per-model entries
	now := time.Now()
	mc.list = make([]schema.Model, len(models))
	copy(mc.list, models)
	mc.listed = now
	for _, model := range models {
		mc.model[model.Name] = modelts{ts: now, model: model}
	}

	// Return sorted list of models
	return models, nil
}
