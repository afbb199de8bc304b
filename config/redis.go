package config

// RedisConfig contains Redis configuration for sessions, notices, and upload progress.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	DB                 int      `env:"DB"                   envDefault:"0"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`

	// Key prefixes for each store.
	SessionPrefix string `env:"SESSION_PREFIX" envDefault:"session:"`
	NoticePrefix  string `env:"NOTICE_PREFIX"  envDefault:"notice:"`
	UploadPrefix  string `env:"UPLOAD_PREFIX"  envDefault:"upload:"`

	// SessionTokenKey is a 32-byte AES key (base64 or hex) sealing backend
	// bearer tokens inside stored sessions. Empty stores tokens unsealed.
	SessionTokenKey string `env:"SESSION_TOKEN_KEY"`
}
