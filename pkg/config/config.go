package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/terrycain/image-cache-server/pkg/e"
	"github.com/terrycain/image-cache-server/pkg/s"
)

type Config struct {
	// Object store
	Bucket    string `env:"S3_BUCKET_NAME" required:"" help:"Bucket holding the images"`
	Region    string `env:"AWS_REGION" required:"" help:"Bucket region e.g. eu-west-1"`
	AccessKey string `env:"AWS_ACCESS_KEY_ID" required:"" help:"Access key ID"`
	SecretKey string `env:"AWS_SECRET_ACCESS_KEY" required:"" help:"Secret access key"`
	Backend   string `env:"STORE_BACKEND" default:"s3" enum:"s3,minio,azureblob" help:"Object store backend. For azureblob the bucket is the container, the access key the account name and the secret key the account key"`
	Endpoint  string `env:"STORE_ENDPOINT" help:"Endpoint of an S3 compatible store e.g. http://localhost:9000, required for minio"`

	// Cache
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" default:"45s" help:"How often listings are refreshed"`
	RefreshTimeout  time.Duration `env:"REFRESH_TIMEOUT" default:"0s" help:"Timeout for one listing, 0 uses the refresh interval"`

	// HTTP
	Port            int           `env:"PORT" default:"5000" help:"Port to listen on"`
	AllowedOrigin   string        `env:"ALLOWED_ORIGIN" default:"*" help:"Value of Access-Control-Allow-Origin"`
	RateLimit       int           `env:"RATE_LIMIT" default:"60" help:"Requests per client per window under /api, 0 disables"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" default:"60s" help:"Rate limit window"`

	// Misc
	LogLevel             string `env:"LOG_LEVEL" default:"info" enum:"debug,info,warn,error"`
	LogFormat            string `env:"LOG_FORMAT" default:"json" enum:"json,console"`
	MetricsListenAddress string `env:"METRICS_LISTEN_ADDR" name:"metrics-listen-addr" help:"Listen address for prometheus metrics e.g. 0.0.0.0:9102, empty disables"`
	Debug                bool   `env:"DEBUG" help:"Enable debug mode, gin debug output and debug logging"`
}

// Parse reads flags from args and falls back to the environment. Missing required settings are an error,
// so the caller can exit before binding a listener.
func Parse(args []string, options ...kong.Option) (*Config, error) {
	var cfg Config

	options = append([]kong.Option{
		kong.Name("image-cache-server"),
		kong.Description("Serves cached listings of an object store bucket over HTTP."),
	}, options...)

	parser, err := kong.New(&cfg, options...)
	if err != nil {
		return nil, err
	}
	if _, err = parser.Parse(args); err != nil {
		if strings.HasPrefix(err.Error(), "missing flags") {
			return nil, fmt.Errorf("%w: %v", e.ErrConfigMissing, err)
		}
		return nil, fmt.Errorf("%w: %v", e.ErrInvalidConfig, err)
	}
	if err = cfg.Check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Check() error {
	missing := make([]string, 0)
	for _, setting := range []struct{ env, value string }{
		{"S3_BUCKET_NAME", c.Bucket},
		{"AWS_REGION", c.Region},
		{"AWS_ACCESS_KEY_ID", c.AccessKey},
		{"AWS_SECRET_ACCESS_KEY", c.SecretKey},
	} {
		if strings.TrimSpace(setting.value) == "" {
			missing = append(missing, setting.env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", e.ErrConfigMissing, strings.Join(missing, ", "))
	}

	if c.RefreshInterval < time.Second {
		return fmt.Errorf("%w: refresh interval must be at least 1s, got %s", e.ErrInvalidConfig, c.RefreshInterval)
	}
	if c.RefreshTimeout < 0 {
		return fmt.Errorf("%w: refresh timeout must not be negative", e.ErrInvalidConfig)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: invalid port %d", e.ErrInvalidConfig, c.Port)
	}
	if c.Backend == "minio" && c.Endpoint == "" {
		return fmt.Errorf("%w: minio backend needs STORE_ENDPOINT", e.ErrConfigMissing)
	}
	return nil
}

// EffectiveLogLevel forces debug logging in debug mode.
func (c *Config) EffectiveLogLevel() string {
	if c.Debug {
		return "debug"
	}
	return c.LogLevel
}

func (c *Config) ListenAddress() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}

// EffectiveRefreshTimeout bounds a listing by the refresh interval unless set explicitly.
func (c *Config) EffectiveRefreshTimeout() time.Duration {
	if c.RefreshTimeout > 0 {
		return c.RefreshTimeout
	}
	return c.RefreshInterval
}

func (c *Config) StoreOptions() s.StoreOptions {
	return s.StoreOptions{
		Bucket:    c.Bucket,
		Region:    c.Region,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		Endpoint:  c.Endpoint,
	}
}
