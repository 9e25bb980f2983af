package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"wisata-bali-recommender/internal/models"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// DestinationRepository handles database operations for the catalog.
type DestinationRepository struct {
	db *sql.DB
}

// NewDestinationRepository creates a new DestinationRepository.
func NewDestinationRepository(db *sql.DB) *DestinationRepository {
	return &DestinationRepository{db: db}
}

const destinationColumns = `kode, nama, kabupaten, tipe_dataran, tingkat_aktivitas,
	popularitas, latitude, longitude, deskripsi, kategori, gambar_url, updated_at`

// FetchCatalog returns every destination in a region. An empty region or
// "bali" means the whole island; anything else is matched against kabupaten.
func (r *DestinationRepository) FetchCatalog(ctx context.Context, region string) ([]models.Destination, error) {
	query := `SELECT ` + destinationColumns + ` FROM destinations`
	var args []any
	if region = strings.TrimSpace(region); region != "" && !strings.EqualFold(region, "bali") {
		query += ` WHERE LOWER(kabupaten) = LOWER($1)`
		args = append(args, region)
	}
	query += ` ORDER BY kode`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()
	return scanDestinations(rows)
}

// List returns a page of destinations with the total matching count.
func (r *DestinationRepository) List(ctx context.Context, params models.DestinationListParams) (*models.DestinationListResponse, error) {
	where := ""
	args := []any{}
	argIdx := 1
	if params.Kabupaten != "" {
		where = fmt.Sprintf(" WHERE LOWER(kabupaten) = LOWER($%d)", argIdx)
		args = append(args, params.Kabupaten)
		argIdx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM destinations"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count query failed: %w", err)
	}

	listQuery := fmt.Sprintf(`SELECT %s FROM destinations%s
		ORDER BY popularitas DESC, kode
		LIMIT $%d OFFSET $%d`, destinationColumns, where, argIdx, argIdx+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("list query failed: %w", err)
	}
	defer rows.Close()

	items, err := scanDestinations(rows)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Destination{}
	}
	return &models.DestinationListResponse{
		Total:        total,
		Limit:        params.Limit,
		Offset:       params.Offset,
		Destinations: items,
	}, nil
}

// GetByKode returns one destination.
func (r *DestinationRepository) GetByKode(ctx context.Context, kode string) (*models.Destination, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+destinationColumns+` FROM destinations WHERE kode = $1`, kode)
	d, err := scanDestination(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get destination %s: %w", kode, err)
	}
	return d, nil
}

// Upsert inserts or updates a destination. The stored popularity and
// description of an existing row are kept; they are curated by hand.
func (r *DestinationRepository) Upsert(ctx context.Context, d *models.Destination) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO destinations (kode, nama, kabupaten, tipe_dataran, tingkat_aktivitas,
			popularitas, latitude, longitude, deskripsi, kategori, gambar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (kode) DO UPDATE SET
			nama = EXCLUDED.nama,
			kabupaten = EXCLUDED.kabupaten,
			tipe_dataran = EXCLUDED.tipe_dataran,
			tingkat_aktivitas = EXCLUDED.tingkat_aktivitas,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			kategori = EXCLUDED.kategori,
			updated_at = EXCLUDED.updated_at
	`, d.Kode, d.Nama, d.Kabupaten, string(d.Terrain), string(d.Activity),
		d.Popularity, d.Latitude, d.Longitude, d.Description, d.Kategori, d.ImageURL,
		time.Now().UTC(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert destination %s: %w", d.Kode, err)
	}
	return nil
}

// Count returns the catalog size.
func (r *DestinationRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM destinations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count destinations: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDestination(row rowScanner) (*models.Destination, error) {
	var (
		d                 models.Destination
		terrain, activity string
		updatedAt         sql.NullTime
	)
	if err := row.Scan(
		&d.Kode, &d.Nama, &d.Kabupaten, &terrain, &activity,
		&d.Popularity, &d.Latitude, &d.Longitude, &d.Description,
		&d.Kategori, &d.ImageURL, &updatedAt,
	); err != nil {
		return nil, err
	}
	// Older imports stored Indonesian labels. Unknown values are kept as-is so
	// the engine can report and exclude the row.
	if t, err := models.ParseTerrain(terrain); err == nil {
		d.Terrain = t
	} else {
		d.Terrain = models.Terrain(terrain)
	}
	if a, err := models.ParseActivityLevel(activity); err == nil {
		d.Activity = a
	} else {
		d.Activity = models.ActivityLevel(activity)
	}
	if updatedAt.Valid {
		d.UpdatedAt = updatedAt.Time
	}
	return &d, nil
}

func scanDestinations(rows *sql.Rows) ([]models.Destination, error) {
	var out []models.Destination
	for rows.Next() {
		d, err := scanDestination(rows)
		if err != nil {
			slog.Error("failed to scan destination row", "error", err)
			continue
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}
