package service

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"carbon-index-service/internal/footprint/cache"
	"carbon-index-service/internal/footprint/model"
	"carbon-index-service/internal/footprint/remote"
)

// ProductLookup is the remote product database boundary. Implementations
// must degrade to ok=false on any failure instead of returning errors.
type ProductLookup interface {
	Lookup(ctx context.Context, name string) (remote.Product, bool)
}

// Matcher resolves a free-text product name to an absolute footprint:
// cache hit, then remote lookup, then similarity fallback across every
// reference dataset.
type Matcher struct {
	cache  *cache.Store
	remote ProductLookup
	index  *Index
	log    zerolog.Logger

	mu       sync.Mutex
	inflight map[string]*keyLock
}

// keyLock is refcounted so the map entry lives exactly as long as someone
// is resolving that key.
type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewMatcher(c *cache.Store, r ProductLookup, ix *Index, log zerolog.Logger) *Matcher {
	return &Matcher{
		cache:    c,
		remote:   r,
		index:    ix,
		log:      log,
		inflight: make(map[string]*keyLock),
	}
}

// Resolve returns the footprint for weightKg of the named product. A nil
// footprint is a valid terminal answer meaning no credible match; those are
// never cached, so failed lookups retry on the next call.
func (m *Matcher) Resolve(ctx context.Context, productName string, weightKg float64) model.MatchResult {
	// the cache is keyed by the raw query string and is authoritative
	if res, ok := m.cache.Get(productName); ok {
		m.log.Info().Str("product", productName).Msg("cache hit")
		return res
	}

	// serialize concurrent identical queries: one remote call, one write
	lock := m.acquireKey(productName)
	lock.mu.Lock()
	defer m.releaseKey(productName, lock)

	if res, ok := m.cache.Get(productName); ok {
		return res
	}

	if p, ok := m.remote.Lookup(ctx, productName); ok {
		footprint := (p.Per100g / 100) * weightKg * 1000
		res := model.MatchResult{ProductName: p.Name, CarbonFootprint: &footprint}
		m.putCache(productName, res)
		m.log.Info().Str("product", productName).Float64("kg_co2e", footprint).Msg("resolved remotely")
		return res
	}

	m.log.Info().Str("product", productName).Msg("falling back to reference datasets")
	if res, ok := m.searchFallback(productName, weightKg); ok {
		m.putCache(productName, res)
		return res
	}

	return model.MatchResult{ProductName: productName}
}

// searchFallback fans each meaningful token out against every dataset in
// parallel and averages the surviving matches. The WaitGroup is the join
// barrier: nothing aggregates until every branch resolved.
func (m *Matcher) searchFallback(productName string, weightKg float64) (model.MatchResult, bool) {
	tokens := FilterMeaningful(strings.Fields(Normalize(productName)))
	if len(tokens) == 0 {
		return model.MatchResult{}, false
	}

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		footprints []float64
	)
	for _, tok := range tokens {
		for _, key := range m.index.Keys() {
			wg.Add(1)
			go func(tok, key string) {
				defer wg.Done()
				match := m.index.Search(key, tok)
				if match == nil {
					return
				}
				mu.Lock()
				footprints = append(footprints, match.Factor*weightKg)
				mu.Unlock()
			}(tok, key)
		}
	}
	wg.Wait()

	if len(footprints) == 0 {
		return model.MatchResult{}, false
	}
	var total float64
	for _, f := range footprints {
		total += f
	}
	mean := total / float64(len(footprints))
	m.log.Info().
		Str("product", productName).
		Int("matches", len(footprints)).
		Float64("kg_co2e", mean).
		Msg("resolved via similarity fallback")
	return model.MatchResult{ProductName: productName, CarbonFootprint: &mean}, true
}

func (m *Matcher) putCache(key string, res model.MatchResult) {
	if err := m.cache.Put(key, res); err != nil {
		m.log.Error().Err(err).Str("product", key).Msg("cache write failed")
	}
}

func (m *Matcher) acquireKey(key string) *keyLock {
	m.mu.Lock()
	defer m.mu.Unlock()
	lk, ok := m.inflight[key]
	if !ok {
		lk = &keyLock{}
		m.inflight[key] = lk
	}
	lk.refs++
	return lk
}

func (m *Matcher) releaseKey(key string, lk *keyLock) {
	lk.mu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	lk.refs--
	if lk.refs == 0 {
		delete(m.inflight, key)
	}
}
