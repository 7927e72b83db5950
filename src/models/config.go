package models

// MConfig Structure
type MConfig struct {
	Name       string            `yaml:"name"`
	Host       string            `yaml:"host"`
	Port       int               `yaml:"port"`
	LogLevel   string            `yaml:"log_level"`
	GrpcHost   string            `yaml:"grpc_host"`
	GrpcPort   int               `yaml:"grpc_port"`
	Logging    MLoggingConfig    `yaml:"logging"`
	Storage    MStorageConfig    `yaml:"storage"`
	Network    MNetworkConfig    `yaml:"network"`
	DataSource MDataSourceConfig `yaml:"data_source"`
	Cache      MCacheConfig      `yaml:"cache"`
	Indices    MIndicesConfig    `yaml:"indices"`
	Scheduler  MSchedulerConfig  `yaml:"scheduler"`
}

type MLoggingConfig struct {
	Format     string `yaml:"format"` // "text" or "json"
	File       string `yaml:"file"`   // empty = stdout only
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"` // "sqlite", "postgres" or "none"
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	RetentionDays      int    `yaml:"retention_days"`
}

type MNetworkConfig struct {
	Proxies            []string `yaml:"proxies"`
	RequestTimeout     int      `yaml:"timeout"`
	ConcurrentRequests int      `yaml:"concurrent_requests"`
	RequestsPerSecond  float64  `yaml:"requests_per_second"`
	Burst              int      `yaml:"burst"`
	UserAgent          string   `yaml:"user_agent"`
}

type MDataSourceConfig struct {
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"` // Overridden by COINGECKO_API_KEY
	Pro     bool   `yaml:"pro"`
}

type MCacheConfig struct {
	Backend    string `yaml:"backend"` // "memory" or "redis"
	TTLSeconds int    `yaml:"ttl_seconds"`
	RedisAddr  string `yaml:"redis_addr"`
	RedisPass  string `yaml:"redis_password"`
	RedisDB    int    `yaml:"redis_db"`
	KeyPrefix  string `yaml:"key_prefix"`
}

type MIndicesConfig struct {
	Stablecoins []string `yaml:"stablecoins"`
	CalendarMIC string   `yaml:"calendar_mic"`
	Timezone    string   `yaml:"timezone"`
}

type MSchedulerConfig struct {
	Enabled bool     `yaml:"enabled"`
	Cron    string   `yaml:"cron"`
	Periods []string `yaml:"periods"`
}
