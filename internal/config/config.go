package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "antclient.cfg.json"

// ServerConfig holds the game server connection settings
type ServerConfig struct {
	Host         string        `json:"host" mapstructure:"host"`
	Port         int           `json:"port" mapstructure:"port"`
	DialTimeout  time.Duration `json:"dialTimeout" mapstructure:"dialTimeout"`
	ReadTimeout  time.Duration `json:"readTimeout" mapstructure:"readTimeout"`
	WriteTimeout time.Duration `json:"writeTimeout" mapstructure:"writeTimeout"`
}

// Address returns host:port.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// JobsConfig selects how unit roles are assigned before the match
type JobsConfig struct {
	Mode        string `json:"mode" mapstructure:"mode"` // static, default or random
	Gatherers   int    `json:"gatherers" mapstructure:"gatherers"`
	Offensive   int    `json:"offensive" mapstructure:"offensive"`
	WasteMovers int    `json:"wasteMovers" mapstructure:"wasteMovers"`
	Seed        int64  `json:"seed" mapstructure:"seed"` // 0 picks a time-based seed
}

// StrategyConfig tunes the decision engine
type StrategyConfig struct {
	MaxAttackHealth    int   `json:"maxAttackHealth" mapstructure:"maxAttackHealth"`
	HuntEnabled        bool  `json:"huntEnabled" mapstructure:"huntEnabled"`
	ReturnHomeWhenIdle bool  `json:"returnHomeWhenIdle" mapstructure:"returnHomeWhenIdle"`
	Seed               int64 `json:"seed" mapstructure:"seed"`
}

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage backend settings
type SQLiteConfig struct {
	OutputDir    string        `json:"outputDir" mapstructure:"outputDir"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// PostgresConfig holds PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// WebSocketConfig holds streaming backend settings
type WebSocketConfig struct {
	URL    string `json:"url" mapstructure:"url"`
	Secret string `json:"secret" mapstructure:"secret"`
}

// StorageConfig holds storage backend configuration
type StorageConfig struct {
	Type      string          `json:"type" mapstructure:"type"`
	Memory    MemoryConfig    `json:"memory" mapstructure:"memory"`
	SQLite    SQLiteConfig    `json:"sqlite" mapstructure:"sqlite"`
	Postgres  PostgresConfig  `json:"postgres" mapstructure:"postgres"`
	WebSocket WebSocketConfig `json:"websocket" mapstructure:"websocket"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// InfluxConfig holds InfluxDB metrics settings
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
}

// APIConfig holds replay upload settings
type APIConfig struct {
	ServerURL string `json:"serverUrl" mapstructure:"serverUrl"`
	APIKey    string `json:"apiKey" mapstructure:"apiKey"`
	Upload    bool   `json:"upload" mapstructure:"upload"`
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("teamName", "Rust_pirates")
	viper.SetDefault("printAnts", false)
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./antlogs")
	viper.SetDefault("tag", "ranked")

	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", 5000)
	viper.SetDefault("server.dialTimeout", "10s")
	viper.SetDefault("server.readTimeout", "30s")
	viper.SetDefault("server.writeTimeout", "5s")

	viper.SetDefault("jobs.mode", "default")
	viper.SetDefault("jobs.gatherers", 8)
	viper.SetDefault("jobs.offensive", 4)
	viper.SetDefault("jobs.wasteMovers", 4)
	viper.SetDefault("jobs.seed", 0)

	viper.SetDefault("strategy.maxAttackHealth", 5)
	viper.SetDefault("strategy.huntEnabled", true)
	viper.SetDefault("strategy.returnHomeWhenIdle", false)
	viper.SetDefault("strategy.seed", 0)

	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.apiKey", "")
	viper.SetDefault("api.upload", false)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./recordings")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.outputDir", "./recordings")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.postgres.host", "localhost")
	viper.SetDefault("storage.postgres.port", "5432")
	viper.SetDefault("storage.postgres.username", "postgres")
	viper.SetDefault("storage.postgres.password", "postgres")
	viper.SetDefault("storage.postgres.database", "antarena")
	viper.SetDefault("storage.websocket.url", "ws://localhost:5000/ingest")
	viper.SetDefault("storage.websocket.secret", "")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "antarena")
	viper.SetDefault("influx.bucket", "antclient")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "antclient")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file. A missing file is
// not an error: defaults and flags are enough to play.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetServerConfig returns the game server settings.
func GetServerConfig() ServerConfig {
	return ServerConfig{
		Host:         viper.GetString("server.host"),
		Port:         viper.GetInt("server.port"),
		DialTimeout:  viper.GetDuration("server.dialTimeout"),
		ReadTimeout:  viper.GetDuration("server.readTimeout"),
		WriteTimeout: viper.GetDuration("server.writeTimeout"),
	}
}

// GetJobsConfig returns the role assignment settings.
func GetJobsConfig() JobsConfig {
	return JobsConfig{
		Mode:        viper.GetString("jobs.mode"),
		Gatherers:   viper.GetInt("jobs.gatherers"),
		Offensive:   viper.GetInt("jobs.offensive"),
		WasteMovers: viper.GetInt("jobs.wasteMovers"),
		Seed:        viper.GetInt64("jobs.seed"),
	}
}

// GetStrategyConfig returns the decision engine settings.
func GetStrategyConfig() StrategyConfig {
	return StrategyConfig{
		MaxAttackHealth:    viper.GetInt("strategy.maxAttackHealth"),
		HuntEnabled:        viper.GetBool("strategy.huntEnabled"),
		ReturnHomeWhenIdle: viper.GetBool("strategy.returnHomeWhenIdle"),
		Seed:               viper.GetInt64("strategy.seed"),
	}
}

// GetStorageConfig returns the storage backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			OutputDir:    viper.GetString("storage.sqlite.outputDir"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("storage.postgres.host"),
			Port:     viper.GetString("storage.postgres.port"),
			Username: viper.GetString("storage.postgres.username"),
			Password: viper.GetString("storage.postgres.password"),
			Database: viper.GetString("storage.postgres.database"),
		},
		WebSocket: WebSocketConfig{
			URL:    viper.GetString("storage.websocket.url"),
			Secret: viper.GetString("storage.websocket.secret"),
		},
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetInfluxConfig returns the InfluxDB settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Protocol: viper.GetString("influx.protocol"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetAPIConfig returns the replay upload settings.
func GetAPIConfig() APIConfig {
	return APIConfig{
		ServerURL: viper.GetString("api.serverUrl"),
		APIKey:    viper.GetString("api.apiKey"),
		Upload:    viper.GetBool("api.upload"),
	}
}
