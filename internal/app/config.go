package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (FLOW_ prefix), flags, or YAML config files.
type Config struct {
	Addr           string `default:"0.0.0.0:3000" usage:"Endpoint listen address"`
	AppSecret      string `usage:"Shared secret for x-hub-signature-256 verification; empty skips the check" flag:"app-secret"`
	PrivateKey     string `usage:"PEM-encoded RSA private key for envelope decryption" flag:"private-key"`
	PrivateKeyFile string `usage:"Path to the PEM private key file" flag:"private-key-file"`
	Passphrase     string `usage:"Passphrase for an encrypted private key"`
	TokenBlocklist string `usage:"Path to a revoked flow token list, one token per line" flag:"token-blocklist"`
	ReplayGuard    ReplayGuardConfig
	RateLimit      RateLimitConfig
	CORS           CORSConfig
	Graceful       GracefulConfig
}

// ReplayGuardConfig controls the optional flow token replay guard. Enable it
// only for flows where every exchange carries a fresh token.
type ReplayGuardConfig struct {
	Enabled  bool `default:"false"  usage:"Reject a flow token the second time it is seen" flag:"replay-guard"`
	Capacity uint `default:"100000" usage:"Expected distinct flow tokens over the process lifetime" flag:"replay-guard-capacity"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins []string `default:"*" usage:"Allowed CORS origins"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "FLOW",
		Files:     []string{"config.yaml", "/etc/flow/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.PrivateKey == "" && c.PrivateKeyFile == "" {
		return errors.New("private key is required: set FLOW_PRIVATE_KEY or FLOW_PRIVATE_KEY_FILE")
	}
	return nil
}

// PrivateKeyPEM returns the configured key material, reading the key file
// when the key is not supplied inline.
func (c *Config) PrivateKeyPEM() ([]byte, error) {
	if c.PrivateKey != "" {
		return []byte(c.PrivateKey), nil
	}
	pem, err := os.ReadFile(c.PrivateKeyFile)
	if err != nil {
		return nil, errors.Wrap(err, "read private key file")
	}
	return pem, nil
}

// applyPlatformDefaults maps platform-provided environment variables that
// use standard names like PORT to the FLOW_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:3000" {
		c.Addr = "0.0.0.0:" + port
	}
}
