package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"wisata-bali-recommender/internal/genetic"
)

type Config struct {
	DB        DBConfig
	Redis     RedisConfig
	Engine    EngineConfig
	Weather   WeatherConfig
	Places    PlacesConfig
	Port      string
	LogLevel  slog.Level
	CacheTTL  time.Duration
	RateLimit RateLimitConfig

	// AdminToken guards the admin routes; when empty they stay mounted and
	// reject every request.
	AdminToken string
}

type DBConfig struct {
	Driver      string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	SSLRootCert string
	SQLitePath  string
}

func (d DBConfig) DSN() string {
	if d.Driver == "sqlite3" {
		return d.SQLitePath
	}
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
	if d.SSLRootCert != "" {
		dsn += fmt.Sprintf(" sslrootcert=%s", d.SSLRootCert)
	}
	return dsn
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Max    int
	Window time.Duration
}

type WeatherConfig struct {
	BaseURL  string
	Timezone string
	RPS      float64
}

type PlacesConfig struct {
	GeoapifyKey     string
	GeoapifyBaseURL string
	FoursquareKey   string
	FoursquareURL   string
}

// EngineConfig is the tunable part of the genetic algorithm. It can be set
// from GA_* variables and overlaid by the YAML file in ENGINE_CONFIG_FILE.
type EngineConfig struct {
	ShortlistSize   int     `yaml:"shortlist_size"`
	PopulationSize  int     `yaml:"population_size"`
	Generations     int     `yaml:"generations"`
	MutationRate    float64 `yaml:"mutation_rate"`
	TournamentSize  int     `yaml:"tournament_size"`
	StagnationLimit int     `yaml:"stagnation_limit"`
	TimeoutMS       int     `yaml:"timeout_ms"`
	Seed            int64   `yaml:"seed"`
	MaxRadiusKm     float64 `yaml:"max_radius_km"`
	Workers         int     `yaml:"workers"`
}

// Params converts the configuration into engine parameters.
func (e EngineConfig) Params() genetic.Params {
	return genetic.Params{
		ShortlistSize:   e.ShortlistSize,
		PopulationSize:  e.PopulationSize,
		Generations:     e.Generations,
		MutationRate:    e.MutationRate,
		TournamentSize:  e.TournamentSize,
		StagnationLimit: e.StagnationLimit,
		Timeout:         time.Duration(e.TimeoutMS) * time.Millisecond,
		Seed:            e.Seed,
		MaxRadiusKm:     e.MaxRadiusKm,
		Workers:         e.Workers,
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	dbPort, err := getEnvInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := getEnvInt("CACHE_TTL_SECONDS", 600)
	if err != nil {
		return nil, err
	}
	rateMax, err := getEnvInt("RATE_LIMIT_MAX", 60)
	if err != nil {
		return nil, err
	}
	rateWindow, err := getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	weatherRPS, err := getEnvFloat("WEATHER_RPS", 5)
	if err != nil {
		return nil, err
	}
	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	engine, err := loadEngine()
	if err != nil {
		return nil, err
	}

	driver := getEnv("DB_DRIVER", "postgres")
	if driver != "postgres" && driver != "sqlite3" {
		return nil, fmt.Errorf("DB_DRIVER must be postgres or sqlite3, got %q", driver)
	}

	return &Config{
		DB: DBConfig{
			Driver:      driver,
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        dbPort,
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			DBName:      getEnv("DB_NAME", "wisata_bali"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			SSLRootCert: getEnv("DB_SSLROOTCERT", ""),
			SQLitePath:  getEnv("SQLITE_PATH", "rekomendasi_wisata.db"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Engine: engine,
		Weather: WeatherConfig{
			BaseURL:  getEnv("WEATHER_BASE_URL", "https://api.open-meteo.com"),
			Timezone: getEnv("WEATHER_TIMEZONE", "Asia/Makassar"),
			RPS:      weatherRPS,
		},
		Places: PlacesConfig{
			GeoapifyKey:     getEnv("GEOAPIFY_API_KEY", ""),
			GeoapifyBaseURL: getEnv("GEOAPIFY_BASE_URL", "https://api.geoapify.com"),
			FoursquareKey:   getEnv("FOURSQUARE_API_KEY", ""),
			FoursquareURL:   getEnv("FOURSQUARE_BASE_URL", "https://api.foursquare.com"),
		},
		Port:     getEnv("SERVER_PORT", "8000"),
		LogLevel: level,
		CacheTTL: time.Duration(cacheTTL) * time.Second,
		RateLimit: RateLimitConfig{
			Max:    rateMax,
			Window: time.Duration(rateWindow) * time.Second,
		},
		AdminToken: getEnv("ADMIN_TOKEN", ""),
	}, nil
}

func loadEngine() (EngineConfig, error) {
	d := genetic.DefaultParams()
	e := EngineConfig{}
	var err error

	ints := []struct {
		key string
		dst *int
		def int
	}{
		{"GA_SHORTLIST_SIZE", &e.ShortlistSize, d.ShortlistSize},
		{"GA_POPULATION_SIZE", &e.PopulationSize, d.PopulationSize},
		{"GA_GENERATIONS", &e.Generations, d.Generations},
		{"GA_TOURNAMENT_SIZE", &e.TournamentSize, d.TournamentSize},
		{"GA_STAGNATION_LIMIT", &e.StagnationLimit, d.StagnationLimit},
		{"GA_TIMEOUT_MS", &e.TimeoutMS, int(d.Timeout / time.Millisecond)},
		{"GA_WORKERS", &e.Workers, d.Workers},
	}
	for _, v := range ints {
		if *v.dst, err = getEnvInt(v.key, v.def); err != nil {
			return EngineConfig{}, err
		}
	}
	if e.MutationRate, err = getEnvFloat("GA_MUTATION_RATE", d.MutationRate); err != nil {
		return EngineConfig{}, err
	}
	if e.MaxRadiusKm, err = getEnvFloat("GA_MAX_RADIUS_KM", d.MaxRadiusKm); err != nil {
		return EngineConfig{}, err
	}
	seed, err := getEnvInt("GA_SEED", 0)
	if err != nil {
		return EngineConfig{}, err
	}
	e.Seed = int64(seed)

	if path := getEnv("ENGINE_CONFIG_FILE", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return EngineConfig{}, fmt.Errorf("read engine config: %w", err)
		}
		// fields missing from the file keep their env or default value
		if err := yaml.Unmarshal(raw, &e); err != nil {
			return EngineConfig{}, fmt.Errorf("parse engine config %s: %w", path, err)
		}
	}

	if e.ShortlistSize > 20 {
		return EngineConfig{}, fmt.Errorf("GA_SHORTLIST_SIZE must be at most 20, got %d", e.ShortlistSize)
	}
	if err := e.Params().Validate(); err != nil {
		return EngineConfig{}, err
	}
	return e, nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return l, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}
