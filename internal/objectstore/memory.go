package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryGateway keeps objects in process memory with the same listing
// semantics as S3. It backs the "memory" storage backend and tests.
type MemoryGateway struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{objects: make(map[string]memoryObject)}
}

func (g *MemoryGateway) List(ctx context.Context, prefix string, recursive bool) ([]Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: list %s: %w", ErrBackend, prefix, err)
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	keys := make([]string, 0, len(g.objects))
	for key := range g.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var objects []Object
	seen := make(map[string]struct{})
	for _, key := range keys {
		if !recursive {
			rest := key[len(prefix):]
			if idx := strings.Index(rest, "/"); idx >= 0 {
				common := prefix + rest[:idx+1]
				// a marker sitting exactly at the rolled-up prefix is part of it
				if _, ok := seen[common]; !ok {
					seen[common] = struct{}{}
					objects = append(objects, Object{Key: common, CommonPrefix: true})
				}
				continue
			}
		}
		objects = append(objects, Object{Key: key, Size: int64(len(g.objects[key].data))})
	}
	return objects, nil
}

func (g *MemoryGateway) Exists(ctx context.Context, key string) (bool, error) {
	_, err := g.Stat(ctx, key)
	return existsFromStat(err)
}

func (g *MemoryGateway) Stat(ctx context.Context, key string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: stat %s: %w", ErrBackend, key, err)
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	obj, ok := g.objects[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return int64(len(obj.data)), nil
}

func (g *MemoryGateway) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("%w: put %s: %w", ErrBackend, key, err)
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("%w: put %s: read %d bytes, declared %d", ErrBackend, key, len(data), size)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: put %s: %w", ErrBackend, key, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.objects[key] = memoryObject{data: data, contentType: contentTypeOrDefault(contentType)}
	return nil
}

func (g *MemoryGateway) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", ErrBackend, key, err)
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	obj, ok := g.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (g *MemoryGateway) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: remove %s: %w", ErrBackend, key, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.objects, key)
	return nil
}

func (g *MemoryGateway) RemoveBatch(ctx context.Context, keys []string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: batch remove: %w", ErrBackend, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, key := range keys {
		delete(g.objects, key)
	}
	return nil
}

func (g *MemoryGateway) Copy(ctx context.Context, srcKey, dstKey string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: copy %s: %w", ErrBackend, srcKey, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	obj, ok := g.objects[srcKey]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, srcKey)
	}
	g.objects[dstKey] = memoryObject{data: bytes.Clone(obj.data), contentType: obj.contentType}
	return nil
}

func (g *MemoryGateway) HasAnyObjectUnder(ctx context.Context, prefix string) (bool, error) {
	objects, err := g.List(ctx, prefix, true)
	if err != nil {
		return false, err
	}
	return hasDescendant(objects, prefix), nil
}

// ContentType returns the stored content type of key, or "" if absent.
func (g *MemoryGateway) ContentType(key string) string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.objects[key].contentType
}

// Keys returns every stored key in sorted order.
func (g *MemoryGateway) Keys() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	keys := make([]string, 0, len(g.objects))
	for key := range g.objects {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func hasDescendant(objects []Object, prefix string) bool {
	for _, obj := range objects {
		if obj.Key != prefix {
			return true
		}
	}
	return false
}
