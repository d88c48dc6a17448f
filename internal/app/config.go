package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "PICKLE_"
	envConfigFile = "PICKLE_CONFIG"
)

type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	Log      LogConfig      `koanf:"log"`
	Database DatabaseConfig `koanf:"database"`
	Storage  StorageConfig  `koanf:"storage"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	Analyzer AnalyzerConfig `koanf:"analyzer"`
	Redis    RedisConfig    `koanf:"redis"`
	Archive  ArchiveConfig  `koanf:"archive"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Otel     OtelConfig     `koanf:"otel"`
}

type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type LogConfig struct {
	Mode string `koanf:"mode"`
}

type DatabaseConfig struct {
	Driver   string `koanf:"driver"`
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Name     string `koanf:"name"`
	SSLMode  string `koanf:"sslmode"`
	Path     string `koanf:"path"`
	// AutoMigrate runs migrations on serve as well as on the migrate command.
	AutoMigrate bool `koanf:"auto_migrate"`
}

type StorageConfig struct {
	TempDir      string `koanf:"temp_dir"`
	PermanentDir string `koanf:"permanent_dir"`
}

type PipelineConfig struct {
	SideEffectTimeout time.Duration `koanf:"side_effect_timeout"`
}

type AnalyzerConfig struct {
	URL          string        `koanf:"url"`
	Timeout      time.Duration `koanf:"timeout"`
	QueueTimeout time.Duration `koanf:"queue_timeout"`
	MaxInFlight  int64         `koanf:"max_in_flight"`
	Breaker      BreakerConfig `koanf:"breaker"`
}

type BreakerConfig struct {
	FailureThreshold uint32        `koanf:"failure_threshold"`
	OpenTimeout      time.Duration `koanf:"open_timeout"`
	HalfOpenRequests uint32        `koanf:"half_open_requests"`
	Interval         time.Duration `koanf:"interval"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Channel  string `koanf:"channel"`
}

// ArchiveConfig is empty-bucket by default, which disables archival.
type ArchiveConfig struct {
	Mode            string        `koanf:"mode"`
	EmulatorHost    string        `koanf:"emulator_host"`
	Bucket          string        `koanf:"bucket"`
	Prefix          string        `koanf:"prefix"`
	CDNDomain       string        `koanf:"cdn_domain"`
	PublicBaseURL   string        `koanf:"public_base_url"`
	CredentialsFile string        `koanf:"credentials_file"`
	CredentialsJSON string        `koanf:"credentials_json"`
	UploadTimeout   time.Duration `koanf:"upload_timeout"`
}

type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

type OtelConfig struct {
	Enabled     bool              `koanf:"enabled"`
	ServiceName string            `koanf:"service_name"`
	Environment string            `koanf:"environment"`
	Version     string            `koanf:"version"`
	Endpoint    string            `koanf:"endpoint"`
	Headers     map[string]string `koanf:"headers"`
	Insecure    bool              `koanf:"insecure"`
	SampleRatio float64           `koanf:"sample_ratio"`
}

func DefaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownTimeout: 30 * time.Second,
		},
		Log: LogConfig{Mode: "development"},
		Database: DatabaseConfig{
			Driver:      "postgres",
			Host:        "localhost",
			Port:        "5432",
			User:        "postgres",
			Name:        "pickleball",
			SSLMode:     "disable",
			AutoMigrate: true,
		},
		Storage: StorageConfig{
			TempDir:      "uploads/temp",
			PermanentDir: "uploads/videos",
		},
		Pipeline: PipelineConfig{SideEffectTimeout: 2 * time.Minute},
		Analyzer: AnalyzerConfig{
			URL:          "http://localhost:5000/analyze",
			Timeout:      5 * time.Minute,
			QueueTimeout: 30 * time.Second,
			MaxInFlight:  4,
			Breaker: BreakerConfig{
				FailureThreshold: 5,
				OpenTimeout:      30 * time.Second,
				HalfOpenRequests: 1,
			},
		},
		Redis:   RedisConfig{Channel: "pickleball.analysis"},
		Archive: ArchiveConfig{Prefix: "videos", UploadTimeout: 2 * time.Minute},
		Metrics: MetricsConfig{Enabled: true},
		Otel: OtelConfig{
			ServiceName: "pickleball-backend",
			SampleRatio: 1,
		},
	}
}

// LoadConfig layers defaults, the optional YAML file named by PICKLE_CONFIG, and
// PICKLE_* environment variables, lowest precedence first. A double underscore
// nests: PICKLE_ANALYZER__BREAKER__OPEN_TIMEOUT=10s sets analyzer.breaker.open_timeout.
func LoadConfig() (Config, error) {
	return loadConfig(os.Getenv(envConfigFile))
}

func loadConfig(path string) (Config, error) {
	k := koanf.New(".")

	if path = strings.TrimSpace(path); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %q: %w", path, err)
		}
	}

	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
		if key == "config" {
			return "", nil
		}
		key = strings.ReplaceAll(key, "__", ".")
		if key == "http.cors_origins" {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("load env config: %w", err)
	}

	cfg := DefaultConfig()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		errs = append(errs, errors.New("http.addr must not be empty"))
	}
	switch strings.ToLower(strings.TrimSpace(c.Database.Driver)) {
	case "postgres":
		if strings.TrimSpace(c.Database.Host) == "" || strings.TrimSpace(c.Database.Name) == "" {
			errs = append(errs, errors.New("database.host and database.name are required for postgres"))
		}
	case "sqlite":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not one of postgres, sqlite", c.Database.Driver))
	}
	if strings.TrimSpace(c.Storage.TempDir) == "" || strings.TrimSpace(c.Storage.PermanentDir) == "" {
		errs = append(errs, errors.New("storage.temp_dir and storage.permanent_dir are required"))
	}
	if strings.TrimSpace(c.Analyzer.URL) == "" {
		errs = append(errs, errors.New("analyzer.url must not be empty"))
	}
	if c.Otel.SampleRatio < 0 || c.Otel.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("otel.sample_ratio %v must be within [0,1]", c.Otel.SampleRatio))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
