package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"wisata-bali-recommender/internal/metrics"
	"wisata-bali-recommender/internal/models"
	"wisata-bali-recommender/internal/places"
	"wisata-bali-recommender/internal/repository"
)

// ErrSyncUnavailable is returned by Sync when no place provider is configured.
var ErrSyncUnavailable = errors.New("catalog sync is not configured")

const (
	destinationListCachePrefix = "destinations:"
	recommendCachePrefix       = "recommend:"
)

// CatalogStore is the catalog persistence used by CatalogService.
type CatalogStore interface {
	List(ctx context.Context, params models.DestinationListParams) (*models.DestinationListResponse, error)
	GetByKode(ctx context.Context, kode string) (*models.Destination, error)
	Upsert(ctx context.Context, d *models.Destination) error
}

// PlaceSource lists the places to import into the catalog.
type PlaceSource interface {
	FetchBali(ctx context.Context) ([]places.Feature, error)
}

// CatalogService handles browsing and importing destinations.
type CatalogService struct {
	repo   CatalogStore
	places PlaceSource
	cache  cache
}

// NewCatalogService creates a CatalogService. src and rdb may be nil.
func NewCatalogService(repo CatalogStore, src PlaceSource, rdb *redis.Client) *CatalogService {
	return &CatalogService{repo: repo, places: src, cache: cache{redis: rdb}}
}

// List returns a page of the catalog.
func (s *CatalogService) List(ctx context.Context, params models.DestinationListParams) (*models.DestinationListResponse, error) {
	params.Validate()

	cacheKey := fmt.Sprintf("%slist:%s:%d:%d", destinationListCachePrefix, params.Kabupaten, params.Limit, params.Offset)
	if cached, err := s.cache.get(ctx, cacheKey); err == nil {
		var result models.DestinationListResponse
		if json.Unmarshal(cached, &result) == nil {
			slog.Debug("cache hit", "key", cacheKey)
			return &result, nil
		}
	}

	result, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list destinations: %w", err)
	}
	if data, err := json.Marshal(result); err == nil {
		s.cache.set(ctx, cacheKey, data, destinationCacheTTL)
	}
	return result, nil
}

// Get returns one destination with its description filled in.
func (s *CatalogService) Get(ctx context.Context, kode string) (*models.Destination, error) {
	d, err := s.repo.GetByKode(ctx, kode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("destination %s: %w", kode, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get destination: %w", err)
	}
	d.Description = d.Describe()
	return d, nil
}

// Sync imports Bali places into the catalog and drops cached listings and
// recommendations.
func (s *CatalogService) Sync(ctx context.Context) (*models.SyncResult, error) {
	if s.places == nil {
		return nil, ErrSyncUnavailable
	}
	slog.Info("starting catalog sync")

	features, err := s.places.FetchBali(ctx)
	if err != nil {
		metrics.CatalogSyncs.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to fetch places: %w", err)
	}

	res := &models.SyncResult{Fetched: len(features)}
	seen := make(map[string]struct{}, len(features))
	for _, f := range features {
		d, ok := f.ToDestination()
		if !ok {
			res.Skipped++
			continue
		}
		if _, dup := seen[d.Kode]; dup {
			res.Skipped++
			continue
		}
		seen[d.Kode] = struct{}{}
		if err := s.repo.Upsert(ctx, &d); err != nil {
			slog.Error("failed to upsert destination", "kode", d.Kode, "error", err)
			res.Failed++
			continue
		}
		res.Imported++
	}

	s.cache.invalidate(ctx, destinationListCachePrefix+"*", recommendCachePrefix+"*")
	metrics.CatalogSyncs.WithLabelValues("ok").Inc()
	slog.Info("catalog sync completed", "fetched", res.Fetched, "imported", res.Imported, "skipped", res.Skipped, "failed", res.Failed)
	return res, nil
}
