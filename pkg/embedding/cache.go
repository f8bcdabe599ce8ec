package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"

	bolt "go.etcd.io/bbolt"
)

var cacheBucket = []byte("embeddings")

// Cache is a bbolt-backed store of previously computed vectors, keyed by
// sha256(model|text). Re-upserting unchanged content skips the provider call.
type Cache struct {
	db *bolt.DB
}

// OpenCache opens (or creates) a cache file.
func OpenCache(path string) (*Cache, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("embedding: open cache %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(cacheBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("embedding: init cache bucket: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error { return c.db.Close() }

func cacheKey(model, text string) []byte {
	h := sha256.Sum256([]byte(model + "|" + text))
	return h[:]
}

func encodeVector(vec []float32) []byte {
	out := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func decodeVector(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}

func (c *Cache) get(model, text string) ([]float32, bool) {
	var vec []float32
	_ = c.db.View(func(tx *bolt.Tx) error {
		if data := tx.Bucket(cacheBucket).Get(cacheKey(model, text)); data != nil {
			vec = decodeVector(data)
		}
		return nil
	})
	return vec, vec != nil
}

func (c *Cache) put(model, text string, vec []float32) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(cacheBucket).Put(cacheKey(model, text), encodeVector(vec))
	})
}

// CachedProvider wraps a Provider with read-through caching.
type CachedProvider struct {
	inner Provider
	cache *Cache
}

// NewCachedProvider wraps inner with the given cache.
func NewCachedProvider(inner Provider, cache *Cache) *CachedProvider {
	return &CachedProvider{inner: inner, cache: cache}
}

func (p *CachedProvider) Model() string   { return p.inner.Model() }
func (p *CachedProvider) Dimensions() int { return p.inner.Dimensions() }

// Embed returns a cached vector if present, otherwise calls the provider and
// stores the result.
func (p *CachedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := p.cache.get(p.Model(), text); ok {
		return vec, nil
	}
	vec, err := p.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := p.cache.put(p.Model(), text, vec); err != nil {
		return nil, fmt.Errorf("embedding: cache write: %w", err)
	}
	return vec, nil
}

// EmbedBatch serves cached entries and forwards only the misses to the
// provider, preserving input order in the returned vectors.
func (p *CachedProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		if vec, ok := p.cache.get(p.Model(), text); ok {
			out[i] = vec
		} else {
			missTexts = append(missTexts, text)
			missIdx = append(missIdx, i)
		}
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vectors, err := p.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, vec := range vectors {
		out[missIdx[j]] = vec
		if err := p.cache.put(p.Model(), missTexts[j], vec); err != nil {
			return nil, fmt.Errorf("embedding: cache write: %w", err)
		}
	}
	return out, nil
}
