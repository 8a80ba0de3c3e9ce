package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Socrata   SocrataConfig   `yaml:"socrata" mapstructure:"socrata"`
	Landmarks LandmarksConfig `yaml:"landmarks" mapstructure:"landmarks"`
	Match     MatchConfig     `yaml:"match" mapstructure:"match"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	OMDB      OMDBConfig      `yaml:"omdb" mapstructure:"omdb"`
	Publish   PublishConfig   `yaml:"publish" mapstructure:"publish"`
	Geocode   GeocodeConfig   `yaml:"geocode" mapstructure:"geocode"`
	Hoods     HoodsConfig     `yaml:"hoods" mapstructure:"hoods"`
	City      CityConfig      `yaml:"city" mapstructure:"city"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// SocrataConfig configures the SODA API consumer.
type SocrataConfig struct {
	Host           string `yaml:"host" mapstructure:"host"`
	AppToken       string `yaml:"app_token" mapstructure:"app_token"`
	AddressDataset string `yaml:"address_dataset" mapstructure:"address_dataset"`
	FilmDataset    string `yaml:"film_dataset" mapstructure:"film_dataset"`
	PageSize       int    `yaml:"page_size" mapstructure:"page_size"`
	FilmLimit      int    `yaml:"film_limit" mapstructure:"film_limit"`
	TimeoutSecs    int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec     int    `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// LandmarksConfig configures the landmark scrape and its cache.
type LandmarksConfig struct {
	SourceURL string `yaml:"source_url" mapstructure:"source_url"`
	CachePath string `yaml:"cache_path" mapstructure:"cache_path"`
}

// MatchConfig configures the fuzzy matcher.
type MatchConfig struct {
	LandmarkThreshold int `yaml:"landmark_threshold" mapstructure:"landmark_threshold"`
}

// OutputConfig configures where finalized tables are written.
type OutputConfig struct {
	Dir         string `yaml:"dir" mapstructure:"dir"`
	ResolvedCSV string `yaml:"resolved_csv" mapstructure:"resolved_csv"`
	EnrichedCSV string `yaml:"enriched_csv" mapstructure:"enriched_csv"`
	Format      string `yaml:"format" mapstructure:"format"`
}

// OMDBConfig configures the film metadata lookup.
type OMDBConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	RatePerSec  int    `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// PublishConfig configures the S3 upload stage.
type PublishConfig struct {
	Bucket     string `yaml:"bucket" mapstructure:"bucket"`
	Key        string `yaml:"key" mapstructure:"key"`
	AWSPath    string `yaml:"aws_path" mapstructure:"aws_path"`
	SkipUpload bool   `yaml:"skip_upload" mapstructure:"skip_upload"`
}

// GeocodeConfig configures the address lookup used by the serve command.
type GeocodeConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// HoodsConfig configures the optional neighborhood shapefile backfill.
type HoodsConfig struct {
	ShapefileURL string `yaml:"shapefile_url" mapstructure:"shapefile_url"`
	NameField    string `yaml:"name_field" mapstructure:"name_field"`
}

// CityConfig points at the city profile file; empty means the built-in
// San Francisco profile.
type CityConfig struct {
	Profile string `yaml:"profile" mapstructure:"profile"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("REELMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "data/reelmap.db")
	v.SetDefault("socrata.host", "https://data.sfgov.org")
	v.SetDefault("socrata.address_dataset", "3mea-di5p")
	v.SetDefault("socrata.film_dataset", "yitu-d5am")
	v.SetDefault("socrata.page_size", 5000)
	v.SetDefault("socrata.film_limit", 10000)
	v.SetDefault("socrata.timeout_secs", 60)
	v.SetDefault("socrata.rate_per_sec", 5)
	v.SetDefault("landmarks.source_url", "https://en.wikipedia.org/wiki/List_of_San_Francisco_Designated_Landmarks")
	v.SetDefault("landmarks.cache_path", "data/landmarks.csv")
	v.SetDefault("match.landmark_threshold", 90)
	v.SetDefault("output.dir", "data")
	v.SetDefault("output.resolved_csv", "resolved_locations.csv")
	v.SetDefault("output.enriched_csv", "processed_movie_locations.csv")
	v.SetDefault("output.format", "csv")
	v.SetDefault("omdb.base_url", "https://www.omdbapi.com")
	v.SetDefault("omdb.rate_per_sec", 10)
	v.SetDefault("omdb.concurrency", 4)
	v.SetDefault("omdb.timeout_secs", 10)
	v.SetDefault("publish.key", "processed_movie_locations.csv")
	v.SetDefault("publish.aws_path", "aws")
	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.user_agent", "reelmap/1.0 (+https://github.com/reelmap/locations-cli)")
	v.SetDefault("geocode.timeout_secs", 5)
	v.SetDefault("hoods.name_field", "nhood")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration for the given command mode. Modes hold
// only the keys that command actually needs, so a resolve run does not demand
// an OMDB key and an enrich run does not demand a bucket.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "fetch", "resolve":
		if c.Socrata.Host == "" {
			problems = append(problems, "socrata.host is required")
		}
		if c.Socrata.PageSize <= 0 {
			problems = append(problems, "socrata.page_size must be > 0")
		}
	case "enrich":
		if c.OMDB.Key == "" {
			problems = append(problems, "omdb.key is required")
		}
		if c.OMDB.Concurrency < 1 || c.OMDB.Concurrency > 16 {
			problems = append(problems, "omdb.concurrency must be between 1 and 16")
		}
	case "publish":
		if c.Publish.Bucket == "" {
			problems = append(problems, "publish.bucket is required")
		}
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	case "run":
		if c.Socrata.Host == "" {
			problems = append(problems, "socrata.host is required")
		}
		if !c.Publish.SkipUpload && c.Publish.Bucket == "" {
			problems = append(problems, "publish.bucket is required unless publish.skip_upload is set")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Match.LandmarkThreshold < 0 || c.Match.LandmarkThreshold > 100 {
		problems = append(problems, "match.landmark_threshold must be between 0 and 100")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
