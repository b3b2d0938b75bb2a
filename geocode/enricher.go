package geocode

import (
	"context"
	"time"

	"github.com/mmdatafocus/vehicle_sales_backend/config"
	"github.com/mmdatafocus/vehicle_sales_backend/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Resolver is the lookup side of the geocoding client.
type Resolver interface {
	Lookup(ctx context.Context, address string) (Coordinates, bool, error)
}

// Enricher scans the store for records still holding the (0, 0) sentinel and
// resolves their city/state pair. Safe to invoke any number of times: records
// with coordinates are never revisited, and unresolved ones stay eligible for
// the next run.
type Enricher struct {
	Store    *models.Store
	Resolver Resolver
	Cache    *Cache
	Logger   *logrus.Logger

	// BatchSize lookups run concurrently per wave, with BatchDelay between
	// waves to stay inside the provider's rate limits.
	BatchSize  int
	BatchDelay time.Duration
}

func NewEnricher(store *models.Store, resolver Resolver, cache *Cache, logger *logrus.Logger, cfg config.GeocoderConfig) *Enricher {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 10
	}
	return &Enricher{
		Store:      store,
		Resolver:   resolver,
		Cache:      cache,
		Logger:     logger,
		BatchSize:  batch,
		BatchDelay: cfg.BatchDelay,
	}
}

// lookupGroup is the set of record ids sharing one cache key, with the
// display-cased address used for the external query.
type lookupGroup struct {
	key     string
	address string
	ids     []int
}

func (e *Enricher) EnrichAll(ctx context.Context) {
	if e.Resolver == nil {
		e.Logger.Info("geocoding disabled: no API credential configured")
		return
	}

	groups := e.collectPending()
	if len(groups) == 0 {
		return
	}

	misses := make([]lookupGroup, 0, len(groups))
	hits := 0
	for key, group := range groups {
		if coords, ok := e.Cache.Get(key); ok {
			e.applyCoordinates(group.ids, coords)
			hits++
			continue
		}
		misses = append(misses, group)
	}

	e.Logger.WithFields(logrus.Fields{
		"pending":    len(groups),
		"cache_hits": hits,
		"lookups":    len(misses),
	}).Info("[geocode.start]")

	for start := 0; start < len(misses); start += e.BatchSize {
		end := start + e.BatchSize
		if end > len(misses) {
			end = len(misses)
		}

		var g errgroup.Group
		for _, group := range misses[start:end] {
			group := group
			g.Go(func() error {
				e.resolveGroup(ctx, group)
				return nil
			})
		}
		// Lookup failures are handled per group; the wave itself never errors.
		_ = g.Wait()

		if end < len(misses) {
			select {
			case <-ctx.Done():
				return
			case <-time.After(e.BatchDelay):
			}
		}
	}

	e.Logger.WithFields(logrus.Fields{
		"cached_locations": e.Cache.Len(),
	}).Info("[geocode.completed]")
}

// collectPending groups the sentinel records by cache key. Records missing a
// city or state can never be resolved and are left alone.
func (e *Enricher) collectPending() map[string]lookupGroup {
	groups := make(map[string]lookupGroup)
	for _, r := range e.Store.GetAll() {
		if r.HasCoordinates() || r.City == "" || r.State == "" {
			continue
		}
		key := CacheKey(r.City, r.State)
		group, ok := groups[key]
		if !ok {
			group = lookupGroup{key: key, address: r.City + ", " + r.State}
		}
		group.ids = append(group.ids, r.ID)
		groups[key] = group
	}
	return groups
}

func (e *Enricher) resolveGroup(ctx context.Context, group lookupGroup) {
	coords, found, err := e.Resolver.Lookup(ctx, group.address)
	if err != nil {
		config.LogError(e.Logger, "enricher.go", "resolveGroup", group.address, nil, err)
		return
	}
	if !found {
		e.Logger.WithFields(logrus.Fields{
			"address": group.address,
		}).Warn("geocode lookup returned no match")
		return
	}

	e.Cache.Put(group.key, coords)
	e.applyCoordinates(group.ids, coords)
}

func (e *Enricher) applyCoordinates(ids []int, coords Coordinates) {
	for _, id := range ids {
		// Tolerates ids cleared by a newer upload mid-run.
		if err := e.Store.UpdateCoordinates(id, coords.Latitude, coords.Longitude); err != nil {
			e.Logger.WithFields(logrus.Fields{
				"record_id": id,
			}).Debug("skipping coordinate write for cleared record")
		}
	}
}
