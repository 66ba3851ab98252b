package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/shareustc/shareustc"
	"github.com/shareustc/shareustc/database"
	shttp "github.com/shareustc/shareustc/http"
	"github.com/shareustc/shareustc/keybackend"
	"github.com/shareustc/shareustc/oss"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for shareustc.
type Config struct {
	Server   ServerConfig     `mapstructure:"server"`
	Auth     AuthConfig       `mapstructure:"auth"`
	OSS      OSSConfig        `mapstructure:"oss"`
	Database database.Config  `mapstructure:"database"`
	CORS     shttp.CORSConfig `mapstructure:"cors"`
	Log      LogConfig        `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=1s"`
}

// AuthConfig holds token signing configuration.
type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret" validate:"required"`
	AccessTTL  time.Duration `mapstructure:"access_ttl" validate:"min=1s"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl" validate:"min=1s"`
}

// TokenConfig converts the section for shareustc.NewTokenCodec.
func (a AuthConfig) TokenConfig() shareustc.TokenConfig {
	return shareustc.TokenConfig{
		Secret:     []byte(a.JWTSecret),
		AccessTTL:  a.AccessTTL,
		RefreshTTL: a.RefreshTTL,
	}
}

// OSSConfig holds object-storage settings. Nothing here is required at load
// time; operations report what they are missing.
type OSSConfig struct {
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	// CredentialsFile, when set, replaces the inline key pair.
	CredentialsFile    string `mapstructure:"credentials_file"`
	Bucket             string `mapstructure:"bucket"`
	Region             string `mapstructure:"region"`
	Endpoint           string `mapstructure:"endpoint" validate:"omitempty,url"`
	PublicURL          string `mapstructure:"public_url" validate:"omitempty,url"`
	STSRoleARN         string `mapstructure:"sts_role_arn"`
	STSSessionDuration uint64 `mapstructure:"sts_session_duration"`
	STSEndpoint        string `mapstructure:"sts_endpoint" validate:"omitempty,url"`
}

// ClientConfig converts the section for oss.NewClient.
func (o OSSConfig) ClientConfig() oss.Config {
	return oss.Config{
		AccessKeyID:        o.AccessKeyID,
		AccessKeySecret:    o.AccessKeySecret,
		Bucket:             o.Bucket,
		Region:             o.Region,
		Endpoint:           o.Endpoint,
		PublicURL:          o.PublicURL,
		STSRoleARN:         o.STSRoleARN,
		STSSessionDuration: o.STSSessionDuration,
	}
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	// Env selects the handler: "dev" is colourised text, "prod" is JSON.
	Env string `mapstructure:"env" validate:"required,oneof=dev prod"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"db-type":   "database.type",
	"db-dsn":    "database.dsn",
	"port":      "server.port",
	"log-level": "log.level",
}

// legacyEnv lists the variable names the service was first deployed with.
// The prefixed name is checked first.
var legacyEnv = map[string]string{
	"auth.jwt_secret":          "JWT_SECRET",
	"oss.access_key_id":        "ALIYUN_ACCESS_KEY_ID",
	"oss.access_key_secret":    "ALIYUN_ACCESS_KEY_SECRET",
	"oss.bucket":               "OSS_BUCKET",
	"oss.region":               "OSS_REGION",
	"oss.endpoint":             "OSS_ENDPOINT",
	"oss.public_url":           "OSS_PUBLIC_URL",
	"oss.sts_role_arn":         "STS_ROLE_ARN",
	"oss.sts_session_duration": "STS_SESSION_DURATION",
	"database.dsn":             "DATABASE_URL",
}

const envPrefix = "SHAREUSTC"

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, prefixed, legacy)
	}
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("auth.access_ttl", shareustc.DefaultAccessTTL)
	v.SetDefault("auth.refresh_ttl", shareustc.DefaultRefreshTTL)

	v.SetDefault("oss.credentials_file", "")
	v.SetDefault("oss.region", oss.DefaultRegion)
	v.SetDefault("oss.endpoint", oss.DefaultEndpoint)
	v.SetDefault("oss.sts_session_duration", oss.DefaultSessionDuration)
	v.SetDefault("oss.sts_endpoint", oss.DefaultSTSEndpoint)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "shareustc.db")
	v.SetDefault("database.tables.audit_log", "audit_log")

	v.SetDefault("cors.enabled", false)
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Authorization", "Content-Type"})
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.env", "dev")
}

// loadDotEnv exports the variables of a .env file without overriding ones
// already set. A missing file is not an error.
func loadDotEnv(flags *pflag.FlagSet) error {
	path := ".env"
	if flags != nil {
		if f := flags.Lookup("env-file"); f != nil {
			path = f.Value.String()
		}
	}
	if path == "" {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > .env file > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	if err := loadDotEnv(flags); err != nil {
		return nil, err
	}
	bindEnv(v)

	if flags != nil {
		bindFlags(v, flags)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	pair, err := keybackend.Resolve(keybackend.KeysConfig{
		Inline: keybackend.KeyPair{
			AccessKeyID:     cfg.OSS.AccessKeyID,
			AccessKeySecret: cfg.OSS.AccessKeySecret,
		},
		File: cfg.OSS.CredentialsFile,
	})
	if err != nil {
		return nil, fmt.Errorf("oss credentials: %w", err)
	}
	cfg.OSS.AccessKeyID = pair.AccessKeyID
	cfg.OSS.AccessKeySecret = pair.AccessKeySecret

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
