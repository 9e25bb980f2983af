package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
)

type dialect struct {
	name   string
	serial string
	uuid   string
	json   string
}

var (
	postgresDialect = dialect{name: "postgres", serial: "SERIAL PRIMARY KEY", uuid: "UUID", json: "JSONB"}
	sqliteDialect   = dialect{name: "sqlite3", serial: "INTEGER PRIMARY KEY AUTOINCREMENT", uuid: "TEXT", json: "TEXT"}
)

func runMigrations(db *sql.DB, d dialect) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS destinations (
			kode VARCHAR(64) PRIMARY KEY,
			nama VARCHAR(255) NOT NULL,
			kabupaten VARCHAR(100) NOT NULL,
			tipe_dataran VARCHAR(20) NOT NULL,
			tingkat_aktivitas VARCHAR(20) NOT NULL,
			popularitas DOUBLE PRECISION NOT NULL DEFAULT 0,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			deskripsi TEXT NOT NULL DEFAULT '',
			kategori VARCHAR(255) NOT NULL DEFAULT '',
			gambar_url TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_destinations_kabupaten ON destinations(kabupaten)`,
		`CREATE TABLE IF NOT EXISTS fitness_weights (
			id {{serial}},
			component VARCHAR(50) NOT NULL UNIQUE,
			weight DOUBLE PRECISION NOT NULL,
			is_active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS recommendation_runs (
			id {{uuid}} PRIMARY KEY,
			requested_at TIMESTAMP NOT NULL,
			preferences {{json}} NOT NULL,
			response {{json}} NOT NULL,
			best_fitness DOUBLE PRECISION NOT NULL,
			execution_ms BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_recommendation_runs_requested_at ON recommendation_runs(requested_at DESC)`,
	}
	migrations = append(migrations, seedWeights()...)
	migrations = append(migrations, seedDestinations())

	r := strings.NewReplacer("{{serial}}", d.serial, "{{uuid}}", d.uuid, "{{json}}", d.json)
	for _, m := range migrations {
		m = r.Replace(m)
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	slog.Info("database migrations completed", "dialect", d.name)
	return nil
}

// Seed default weights if a component has no row yet.
func seedWeights() []string {
	defaults := []struct {
		component string
		weight    string
	}{
		{"terrain", "0.30"},
		{"activity", "0.20"},
		{"distance", "0.20"},
		{"district", "0.15"},
		{"popularity", "0.10"},
		{"time_of_day", "0.05"},
	}
	out := make([]string, 0, len(defaults))
	for _, w := range defaults {
		out = append(out, fmt.Sprintf(`INSERT INTO fitness_weights (component, weight)
		 SELECT '%[1]s', %[2]s
		 WHERE NOT EXISTS (SELECT 1 FROM fitness_weights WHERE component = '%[1]s')`, w.component, w.weight))
	}
	return out
}

func seedDestinations() string {
	return `INSERT INTO destinations (kode, nama, kabupaten, tipe_dataran, tingkat_aktivitas, popularitas, latitude, longitude, kategori) VALUES
		('BALI-001', 'Pantai Kuta', 'Badung', 'lowland', 'moderate', 4.7, -8.7180, 115.1686, 'beach'),
		('BALI-002', 'Air Terjun Tegenungan', 'Gianyar', 'water', 'moderate', 4.5, -8.5956, 115.2882, 'natural.water'),
		('BALI-003', 'Tegalalang Rice Terrace', 'Gianyar', 'highland', 'relaxed', 4.8, -8.4312, 115.2767, 'tourism.sights'),
		('BALI-004', 'Pantai Nusa Dua', 'Badung', 'lowland', 'relaxed', 4.6, -8.8008, 115.2317, 'beach'),
		('BALI-005', 'Gunung Batur', 'Bangli', 'highland', 'extreme', 4.9, -8.2424, 115.3754, 'natural.mountain.peak'),
		('BALI-006', 'Pantai Sanur', 'Denpasar', 'lowland', 'relaxed', 4.4, -8.6783, 115.2636, 'beach'),
		('BALI-007', 'Air Terjun Gitgit', 'Buleleng', 'water', 'moderate', 4.3, -8.1894, 115.1311, 'natural.water'),
		('BALI-008', 'Pura Ulun Danu Bratan', 'Tabanan', 'water', 'relaxed', 4.7, -8.2755, 115.1678, 'tourism.sights.place_of_worship'),
		('BALI-009', 'Pantai Amed', 'Karangasem', 'lowland', 'moderate', 4.6, -8.3365, 115.6501, 'beach'),
		('BALI-010', 'Gunung Agung', 'Karangasem', 'highland', 'extreme', 4.8, -8.3425, 115.5030, 'natural.mountain.peak')
		ON CONFLICT (kode) DO NOTHING`
}
