package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default values shared by the server and the CLI
const (
	DefaultEndpoint    = "http://127.0.0.1:5000/tailor_resume"
	DefaultMaxFileSize = 10 * 1024 * 1024
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port         int           `yaml:"port" validate:"min=1,max=65535"`
		Host         string        `yaml:"host"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		IdleTimeout  time.Duration `yaml:"idle_timeout"`
		// BodyLimit caps multipart submissions; it must leave room for the
		// resume itself plus the job description.
		BodyLimit int64 `yaml:"body_limit" validate:"gt=0"`
		GRPC      bool  `yaml:"grpc"`
		// CORSOrigins limits which origins may call the JSON API; empty allows all
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`

	Tailor struct {
		Endpoint    string        `yaml:"endpoint" validate:"required,url"`
		Timeout     time.Duration `yaml:"timeout" validate:"gte=0"`
		StrictMIME  bool          `yaml:"strict_mime"`
		MaxFileSize int64         `yaml:"max_file_size" validate:"gt=0"`
		UserAgent   string        `yaml:"user_agent"`
	} `yaml:"tailor"`

	Downloads struct {
		Store           string        `yaml:"store" validate:"oneof=memory redis spaces"`
		TTL             time.Duration `yaml:"ttl" validate:"gt=0"`
		CleanupInterval time.Duration `yaml:"cleanup_interval" validate:"gt=0"`
	} `yaml:"downloads"`

	RateLimit struct {
		RequestsPerMinute int `yaml:"requests_per_minute" validate:"gte=0"`
		Burst             int `yaml:"burst" validate:"gte=0"`
	} `yaml:"rate_limit"`

	Logging struct {
		Level  string `yaml:"level" validate:"oneof=debug info warn warning error fatal"`
		Format string `yaml:"format" validate:"oneof=json text"`
		Output string `yaml:"output" validate:"oneof=stdout stderr"`

		Adapters []struct {
			Name    string                 `yaml:"name"`
			Type    string                 `yaml:"type"`
			Enabled bool                   `yaml:"enabled"`
			Options map[string]interface{} `yaml:"options"`
		} `yaml:"adapters"`
	} `yaml:"logging"`

	Redis struct {
		URL      string        `yaml:"url"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"redis"`

	// Spaces is an S3-compatible bucket used when downloads.store is "spaces"
	Spaces struct {
		Endpoint        string `yaml:"endpoint"`
		Region          string `yaml:"region"`
		BucketName      string `yaml:"bucket_name"`
		AccessKeyID     string `yaml:"access_key_id"`
		AccessKeySecret string `yaml:"access_key_secret"`
		Prefix          string `yaml:"prefix"`
		PathStyle       bool   `yaml:"path_style"`
	} `yaml:"spaces"`
}

var (
	bracedVar = regexp.MustCompile(`\$\{([^}]+)\}`)
	bareVar   = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars expands environment variables in a string using ${VAR} or $VAR syntax.
// Unknown variables are left untouched.
func expandEnvVars(s string) string {
	s = bracedVar.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})

	return bareVar.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[1:]); val != "" {
			return val
		}
		return match
	})
}

// Default returns a configuration populated with built-in defaults only
func Default() *Config {
	config := &Config{}

	config.Server.Port = 8080
	config.Server.Host = "0.0.0.0"
	config.Server.ReadTimeout = 30 * time.Second
	config.Server.WriteTimeout = 3 * time.Minute
	config.Server.IdleTimeout = 60 * time.Second
	config.Server.BodyLimit = DefaultMaxFileSize + 1024*1024
	config.Server.GRPC = true

	config.Tailor.Endpoint = DefaultEndpoint
	config.Tailor.Timeout = 2 * time.Minute
	config.Tailor.StrictMIME = true
	config.Tailor.MaxFileSize = DefaultMaxFileSize
	config.Tailor.UserAgent = "tailor-form/1.0"

	config.Downloads.Store = "memory"
	config.Downloads.TTL = 15 * time.Minute
	config.Downloads.CleanupInterval = time.Minute

	config.RateLimit.RequestsPerMinute = 10
	config.RateLimit.Burst = 3

	config.Logging.Level = "info"
	config.Logging.Format = "json"
	config.Logging.Output = "stdout"

	config.Redis.URL = "redis://localhost:6379"
	config.Redis.Timeout = 5 * time.Second

	config.Spaces.Region = "blr1"
	config.Spaces.Prefix = "tailored/"

	return config
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	config := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), config); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", configPath, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
		}
	}

	config.loadFromEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Server.BodyLimit < c.Tailor.MaxFileSize {
		return fmt.Errorf("invalid configuration: server.body_limit (%d) is smaller than tailor.max_file_size (%d)",
			c.Server.BodyLimit, c.Tailor.MaxFileSize)
	}
	if c.Downloads.Store == "spaces" {
		sp := c.Spaces
		if sp.BucketName == "" || sp.AccessKeyID == "" || sp.AccessKeySecret == "" {
			return fmt.Errorf("invalid configuration: spaces download store needs bucket_name, access_key_id and access_key_secret")
		}
	}
	return nil
}

// Address returns the host:port the server listens on
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}

	if grpcEnabled := os.Getenv("GRPC_ENABLED"); grpcEnabled != "" {
		c.Server.GRPC = parseBool(grpcEnabled)
	}

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.Server.CORSOrigins = nil
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				c.Server.CORSOrigins = append(c.Server.CORSOrigins, origin)
			}
		}
	}

	if endpoint := os.Getenv("TAILOR_ENDPOINT"); endpoint != "" {
		c.Tailor.Endpoint = endpoint
	}

	if timeout := os.Getenv("TAILOR_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			c.Tailor.Timeout = d
		}
	}

	if strict := os.Getenv("TAILOR_STRICT_MIME"); strict != "" {
		c.Tailor.StrictMIME = parseBool(strict)
	}

	if maxSize := os.Getenv("TAILOR_MAX_FILE_SIZE"); maxSize != "" {
		if size, err := strconv.ParseInt(maxSize, 10, 64); err == nil {
			c.Tailor.MaxFileSize = size
		}
	}

	if store := os.Getenv("DOWNLOAD_STORE"); store != "" {
		c.Downloads.Store = strings.ToLower(store)
	}

	if ttl := os.Getenv("DOWNLOAD_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			c.Downloads.TTL = d
		}
	}

	if rpm := os.Getenv("RATE_LIMIT_PER_MINUTE"); rpm != "" {
		if n, err := strconv.Atoi(rpm); err == nil {
			c.RateLimit.RequestsPerMinute = n
		}
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = strings.ToLower(logLevel)
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = strings.ToLower(logFormat)
	}

	if endpoint := os.Getenv("BUCKET_ENDPOINT"); endpoint != "" {
		c.Spaces.Endpoint = endpoint
	}

	if region := os.Getenv("BUCKET_REGION"); region != "" {
		c.Spaces.Region = region
	}

	if bucketName := os.Getenv("BUCKET_NAME"); bucketName != "" {
		c.Spaces.BucketName = bucketName
	}

	if accessKeyID := os.Getenv("BUCKET_ACCESS_KEY_ID"); accessKeyID != "" {
		c.Spaces.AccessKeyID = accessKeyID
	}

	if accessKeySecret := os.Getenv("BUCKET_ACCESS_KEY_SECRET"); accessKeySecret != "" {
		c.Spaces.AccessKeySecret = accessKeySecret
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.URL = redisURL
	}

	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		c.Redis.Password = redisPassword
	}

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			c.Redis.DB = db
		}
	}

	if redisTimeout := os.Getenv("REDIS_TIMEOUT"); redisTimeout != "" {
		if timeout, err := time.ParseDuration(redisTimeout); err == nil {
			c.Redis.Timeout = timeout
		}
	}

	c.loadLoggingAdapterEnvVars()
}

// loadLoggingAdapterEnvVars loads environment variables for logging adapters
func (c *Config) loadLoggingAdapterEnvVars() {
	for i := range c.Logging.Adapters {
		adapter := &c.Logging.Adapters[i]
		if adapter.Type != "file" {
			continue
		}

		if path := os.Getenv("LOG_FILE_PATH"); path != "" {
			if adapter.Options == nil {
				adapter.Options = make(map[string]interface{})
			}
			adapter.Options["file_path"] = path
		}
	}
}

func parseBool(s string) bool {
	return s == "true" || s == "1"
}
