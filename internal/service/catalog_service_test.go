package service

import (
	"context"
	"errors"
	"testing"

	"wisata-bali-recommender/internal/models"
	"wisata-bali-recommender/internal/places"
	"wisata-bali-recommender/internal/repository"
)

type memoryCatalog struct {
	rows      map[string]models.Destination
	listCalls int
}

func (m *memoryCatalog) List(ctx context.Context, params models.DestinationListParams) (*models.DestinationListResponse, error) {
	m.listCalls++
	out := &models.DestinationListResponse{Limit: params.Limit, Offset: params.Offset, Destinations: []models.Destination{}}
	for _, d := range m.rows {
		out.Destinations = append(out.Destinations, d)
	}
	out.Total = len(out.Destinations)
	return out, nil
}

func (m *memoryCatalog) GetByKode(ctx context.Context, kode string) (*models.Destination, error) {
	d, ok := m.rows[kode]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (m *memoryCatalog) Upsert(ctx context.Context, d *models.Destination) error {
	if m.rows == nil {
		m.rows = map[string]models.Destination{}
	}
	m.rows[d.Kode] = *d
	return nil
}

type fakePlaces struct {
	features []places.Feature
	err      error
}

func (f fakePlaces) FetchBali(ctx context.Context) ([]places.Feature, error) {
	return f.features, f.err
}

func feature(id, name, county string, lon, lat float64, categories ...string) places.Feature {
	var f places.Feature
	f.Properties = places.PlaceProperties{PlaceID: id, Name: name, County: county, Lat: lat, Lon: lon, Categories: categories}
	f.Geometry.Coordinates = []float64{lon, lat}
	return f
}

func TestCatalogService_Sync(t *testing.T) {
	store := &memoryCatalog{}
	src := fakePlaces{features: []places.Feature{
		feature("p1", "Danau Batur", "Bangli", 115.40, -8.25, "natural", "natural.water"),
		feature("p1", "Danau Batur", "Bangli", 115.40, -8.25, "natural", "natural.water"),
		feature("p2", "Pura Besakih", "Karangasem Regency", 115.45, -8.37, "tourism.sights.place_of_worship.temple"),
		feature("p3", "Gili Meno", "Lombok Utara", 116.05, -8.35, "beach"),
		feature("p4", "", "Badung", 115.17, -8.72, "beach"),
	}}
	svc := NewCatalogService(store, src, nil)

	res, err := svc.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	want := models.SyncResult{Fetched: 5, Imported: 2, Skipped: 3}
	if *res != want {
		t.Errorf("result = %+v, want %+v", *res, want)
	}

	d, err := svc.Get(context.Background(), "GEO-p2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d.Kabupaten != "Karangasem" || d.Activity != models.ActivityRelaxed || d.Description == "" {
		t.Errorf("unexpected destination %+v", d)
	}
	if store.rows["GEO-p1"].Terrain != models.TerrainWater {
		t.Errorf("Danau Batur terrain = %s, want water", store.rows["GEO-p1"].Terrain)
	}
}

func TestCatalogService_SyncErrors(t *testing.T) {
	if _, err := NewCatalogService(&memoryCatalog{}, nil, nil).Sync(context.Background()); !errors.Is(err, ErrSyncUnavailable) {
		t.Errorf("no source: err = %v, want ErrSyncUnavailable", err)
	}
	svc := NewCatalogService(&memoryCatalog{}, fakePlaces{err: errors.New("quota exceeded")}, nil)
	if _, err := svc.Sync(context.Background()); err == nil {
		t.Error("expected an error from a failing source")
	}
}

func TestCatalogService_GetNotFound(t *testing.T) {
	svc := NewCatalogService(&memoryCatalog{}, nil, nil)
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCatalogService_List(t *testing.T) {
	store := &memoryCatalog{rows: map[string]models.Destination{"a": {Kode: "a"}, "b": {Kode: "b"}}}
	res, err := NewCatalogService(store, nil, nil).List(context.Background(), models.DestinationListParams{Limit: 0})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if res.Total != 2 || res.Limit != 50 {
		t.Errorf("unexpected list %+v", res)
	}
}
