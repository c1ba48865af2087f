package types

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetBackendConfig() BackendConfig
	GetCORSConfig() CORSConfig
	GetPerformanceConfig() PerformanceConfig
	GetLogConfig() LogConfig
	GetEventLogConfig() EventLogConfig
	GetEffectiveServerConfig() ServerConfig
	Validate() error
	DisplayServerConfig()
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port                    int    `json:"port"`
	Host                    string `json:"host"`
	ReadTimeout             int    `json:"read_timeout"`
	WriteTimeout            int    `json:"write_timeout"`
	IdleTimeout             int    `json:"idle_timeout"`
	GracefulShutdownTimeout int    `json:"graceful_shutdown_timeout"`
}

// BackendConfig describes the single configured upstream backend.
// It is read once at startup and shared immutably by all requests.
type BackendConfig struct {
	BaseURL               string `json:"base_url"`
	APIKey                string `json:"-"`
	ProviderName          string `json:"provider_name"`
	RequestTimeout        int    `json:"request_timeout"`
	ConnectTimeout        int    `json:"connect_timeout"`
	ResponseHeaderTimeout int    `json:"response_header_timeout"`
	IdleConnTimeout       int    `json:"idle_conn_timeout"`
	MaxIdleConns          int    `json:"max_idle_conns"`
	MaxIdleConnsPerHost   int    `json:"max_idle_conns_per_host"`
}

// CORSConfig represents CORS configuration
type CORSConfig struct {
	Enabled          bool     `json:"enabled"`
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
}

// PerformanceConfig represents performance configuration
type PerformanceConfig struct {
	MaxConcurrentRequests int   `json:"max_concurrent_requests"`
	MaxRequestBodySize    int64 `json:"max_request_body_size"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level      string `json:"level"`
	Format     string `json:"format"`
	EnableFile bool   `json:"enable_file"`
	FilePath   string `json:"file_path"`
}

// EventLogConfig controls how request/response events are rendered.
type EventLogConfig struct {
	ContentPreviewLength int `json:"content_preview_length"`
	ChunkPreviewLength   int `json:"chunk_preview_length"`
}
