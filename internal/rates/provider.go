package rates

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Simplici0/cotizador/internal/pricing"
	"github.com/Simplici0/cotizador/internal/store"
)

// SourceDefault marks the hardcoded table.
const SourceDefault = "predeterminado"

// failureCooldown is how long a failed fetch suppresses further attempts.
const failureCooldown = 5 * time.Minute

// Fetcher returns a fresh rate table.
type Fetcher interface {
	Fetch(ctx context.Context) (pricing.Rates, error)
}

// Cache stores the last good rate table.
type Cache interface {
	LoadRates(ctx context.Context) (store.RateTable, error)
	SaveRates(ctx context.Context, t store.RateTable) error
}

// Provider serves the current rate table. A stored table younger than maxAge
// is used as is; otherwise it fetches once and falls back to the stored
// table, then to pricing.DefaultRates.
type Provider struct {
	fetcher Fetcher
	cache   Cache
	maxAge  time.Duration
	now     func() time.Time

	mu       sync.Mutex
	failedAt time.Time
}

// NewProvider returns a Provider. fetcher may be nil to work offline.
func NewProvider(fetcher Fetcher, cache Cache, maxAge time.Duration) *Provider {
	return &Provider{fetcher: fetcher, cache: cache, maxAge: maxAge, now: time.Now}
}

// Current returns the rates to price with. It never fails.
func (p *Provider) Current(ctx context.Context) pricing.Rates {
	return p.Table(ctx).Rates
}

// Table returns the current table with its origin.
func (p *Provider) Table(ctx context.Context) store.RateTable {
	cached, err := p.cache.LoadRates(ctx)
	hasCache := err == nil
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Warnf("load stored exchange rates failed, err:%v", err)
	}
	if hasCache && p.now().Sub(cached.FetchedAt) < p.maxAge {
		return complete(cached)
	}

	if p.coolingDown() {
		log.Debug("exchange rate refresh skipped after recent failure")
	} else {
		fresh, err := p.Refresh(ctx)
		if err == nil {
			return fresh
		}
		log.Warnf("refresh exchange rates failed, using fallback, err:%v", err)
	}

	if hasCache {
		return complete(cached)
	}
	return store.RateTable{Rates: pricing.DefaultRates(), Source: SourceDefault}
}

// Refresh fetches and stores a new table.
func (p *Provider) Refresh(ctx context.Context) (store.RateTable, error) {
	if p.fetcher == nil {
		return store.RateTable{}, errors.New("exchange rate fetcher not configured")
	}
	rates, err := p.fetcher.Fetch(ctx)
	p.mu.Lock()
	if err != nil {
		p.failedAt = p.now()
	} else {
		p.failedAt = time.Time{}
	}
	p.mu.Unlock()
	if err != nil {
		return store.RateTable{}, err
	}
	t := store.RateTable{Rates: rates, Source: Source, FetchedAt: p.now().UTC()}
	if err := p.cache.SaveRates(ctx, t); err != nil {
		log.Warnf("store exchange rates failed, err:%v", err)
	}
	log.WithFields(log.Fields{"usd": rates[pricing.USD], "eur": rates[pricing.EUR]}).Info("exchange rates refreshed")
	return t, nil
}

func (p *Provider) coolingDown() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.failedAt.IsZero() && p.now().Sub(p.failedAt) < failureCooldown
}

// complete fills currencies missing from a stored table with the defaults.
func complete(t store.RateTable) store.RateTable {
	defaults := pricing.DefaultRates()
	rates := make(pricing.Rates, len(defaults))
	for cur, rate := range defaults {
		rates[cur] = rate
	}
	for cur, rate := range t.Rates {
		if valid(rate) {
			rates[cur] = rate
		}
	}
	t.Rates = rates
	return t
}
