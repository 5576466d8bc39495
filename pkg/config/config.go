// Package config loads and validates experiment configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Index, Queries, Eval, Ranker, Tuning, Judge, Redis, Postgres,
// SQLite, Kafka, Watch, Logging, Metrics).
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/errors"
)

// Config is the top-level application configuration.
type Config struct {
	Index    IndexConfig    `yaml:"index"`
	Queries  QueriesConfig  `yaml:"queries"`
	Eval     EvalConfig     `yaml:"eval"`
	Ranker   RankerConfig   `yaml:"ranker"`
	Tuning   TuningConfig   `yaml:"tuning"`
	Judge    JudgeConfig    `yaml:"judge"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Watch    WatchConfig    `yaml:"watch"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// IndexConfig points at the line corpus the in-memory index is built from.
type IndexConfig struct {
	Prefix       string `yaml:"prefix"`
	Dataset      string `yaml:"dataset"`
	CorpusFile   string `yaml:"corpusFile"`
	MetadataFile string `yaml:"metadataFile"`
}

// CorpusPath returns prefix/dataset/corpusFile.
func (c IndexConfig) CorpusPath() string {
	return joinPath(c.Prefix, c.Dataset, c.CorpusFile)
}

// MetadataPath returns prefix/dataset/metadataFile, or "" when unset.
func (c IndexConfig) MetadataPath() string {
	if c.MetadataFile == "" {
		return ""
	}
	return joinPath(c.Prefix, c.Dataset, c.MetadataFile)
}

// QueriesConfig locates the query file: <path><dataset>-queries.txt unless
// File is set explicitly.
type QueriesConfig struct {
	Path string `yaml:"path"`
	File string `yaml:"file"`
}

// EvalConfig controls relevance judgements and reporting cut-offs.
type EvalConfig struct {
	QrelsFile  string `yaml:"qrelsFile"`
	Depth      int    `yaml:"depth"`
	PrecisionK int    `yaml:"precisionK"`
	ShowTop    int    `yaml:"showTop"`
}

// RankerConfig selects the scoring method and its parameters by name.
type RankerConfig struct {
	Method string             `yaml:"method"`
	Params map[string]float64 `yaml:"params"`
}

// TuningConfig holds the PL2 parameter grid and sweep settings.
type TuningConfig struct {
	CValues      []float64 `yaml:"cValues"`
	LambdaValues []float64 `yaml:"lambdaValues"`
	Workers      int       `yaml:"workers"`
	OutputDir    string    `yaml:"outputDir"`
	RankerFile   string    `yaml:"rankerFile"`
	Store        string    `yaml:"store"`
}

// JudgeConfig controls the interactive relevance judgement session.
type JudgeConfig struct {
	OutputFile string `yaml:"outputFile"`
	MaxResults int    `yaml:"maxResults"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`

	// StoreTimeout bounds one cache round trip before the ranking falls
	// through to the engine.
	StoreTimeout time.Duration `yaml:"storeTimeout"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// SQLiteConfig holds the path of the local run-history database.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	TuningEvents string `yaml:"tuningEvents"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// WatchConfig controls the sweep watcher's HTTP API. A running sweep with no
// event for StaleAfter is reported as stalled.
type WatchConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	StaleAfter   time.Duration `yaml:"staleAfter"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values. Load does not validate; call Validate before use.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// QueryPath resolves the query file location.
func (c *Config) QueryPath() string {
	if c.Queries.File != "" {
		return c.Queries.File
	}
	return c.Queries.Path + c.Index.Dataset + "-queries.txt"
}

// Validate checks the settings every command needs. Failures wrap
// errors.ErrConfiguration.
func (c *Config) Validate() error {
	if c.Index.CorpusFile == "" {
		return apperrors.Newf(apperrors.ErrConfiguration, "index.corpusFile is required")
	}
	if c.Eval.Depth <= 0 {
		return apperrors.Newf(apperrors.ErrConfiguration, "eval.depth must be positive, got %d", c.Eval.Depth)
	}
	if c.Eval.PrecisionK <= 0 {
		return apperrors.Newf(apperrors.ErrConfiguration, "eval.precisionK must be positive, got %d", c.Eval.PrecisionK)
	}
	if c.Ranker.Method == "" {
		return apperrors.New(apperrors.ErrConfiguration, `"ranker" group needs a method`)
	}
	return nil
}

// ValidateTuning checks the grid settings used by the tune task.
func (c *Config) ValidateTuning() error {
	if len(c.Tuning.CValues) == 0 {
		return apperrors.New(apperrors.ErrConfiguration, "tuning.cValues must not be empty")
	}
	if len(c.Tuning.LambdaValues) == 0 {
		return apperrors.New(apperrors.ErrConfiguration, "tuning.lambdaValues must not be empty")
	}
	for _, v := range c.Tuning.CValues {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return apperrors.Newf(apperrors.ErrConfiguration, "tuning.cValues contains invalid value %v", v)
		}
	}
	for _, v := range c.Tuning.LambdaValues {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return apperrors.Newf(apperrors.ErrConfiguration, "tuning.lambdaValues contains invalid value %v", v)
		}
	}
	switch c.Tuning.Store {
	case "", "none", "sqlite", "postgres":
	default:
		return apperrors.Newf(apperrors.ErrConfiguration, "tuning.store %q is not one of none, sqlite, postgres", c.Tuning.Store)
	}
	return nil
}

// defaultConfig returns a Config with the course defaults: PL2 grid, top-1000
// depth, P@10 and 20 results per judgement screen.
func defaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Prefix:     ".",
			Dataset:    "moocs",
			CorpusFile: "moocs.dat",
		},
		Queries: QueriesConfig{
			Path: "./",
		},
		Eval: EvalConfig{
			QrelsFile:  "moocs-qrels.txt",
			Depth:      1000,
			PrecisionK: 10,
			ShowTop:    10,
		},
		Ranker: RankerConfig{
			Method: "bm25",
			Params: map[string]float64{},
		},
		Tuning: TuningConfig{
			CValues:      []float64{0.3, 0.6, 0.9},
			LambdaValues: []float64{0.000001, 0.00001, 0.0001, 0.001, 0.01, 0.1, 1, 10},
			Workers:      1,
			OutputDir:    "Assignment1",
			RankerFile:   "Assignment1/pl2.ranker",
			Store:        "none",
		},
		Judge: JudgeConfig{
			OutputFile: "Assignment1/task8.txt",
			MaxResults: 20,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize:     10,
			CacheTTL:     10 * time.Minute,
			StoreTimeout: 250 * time.Millisecond,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "rankinglab",
			User:            "rankinglab",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		SQLite: SQLiteConfig{
			Path: "rankinglab.db",
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "sweepwatch",
			Topics: KafkaTopics{
				TuningEvents: "tuning-events",
			},
		},
		Watch: WatchConfig{
			Port:         8090,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			StaleAfter:   10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Port: 9090,
		},
	}
}

// applyEnvOverrides reads RL_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RL_INDEX_PREFIX"); v != "" {
		cfg.Index.Prefix = v
	}
	if v := os.Getenv("RL_INDEX_DATASET"); v != "" {
		cfg.Index.Dataset = v
	}
	if v := os.Getenv("RL_EVAL_DEPTH"); v != "" {
		if depth, err := strconv.Atoi(v); err == nil {
			cfg.Eval.Depth = depth
		}
	}
	if v := os.Getenv("RL_TUNING_WORKERS"); v != "" {
		if workers, err := strconv.Atoi(v); err == nil {
			cfg.Tuning.Workers = workers
		}
	}
	if v := os.Getenv("RL_TUNING_STORE"); v != "" {
		cfg.Tuning.Store = v
	}
	if v := os.Getenv("RL_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("RL_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("RL_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("RL_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("RL_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("RL_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("RL_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("RL_SQLITE_PATH"); v != "" {
		cfg.SQLite.Path = v
	}
	if v := os.Getenv("RL_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
		cfg.Kafka.Enabled = true
	}
	if v := os.Getenv("RL_KAFKA_CONSUMER_GROUP"); v != "" {
		cfg.Kafka.ConsumerGroup = v
	}
	if v := os.Getenv("RL_WATCH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Watch.Port = port
		}
	}
	if v := os.Getenv("RL_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RL_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("RL_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
			cfg.Metrics.Enabled = true
		}
	}
}

func joinPath(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, strings.TrimSuffix(p, "/"))
		}
	}
	return strings.Join(nonEmpty, "/")
}
