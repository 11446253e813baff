package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrInvalidConfig      = errors.New("invalid config")
)

const (
	VerificationModeMock = "mock"
	VerificationModeHTTP = "http"

	PinningBackendPinata = "pinata"
	PinningBackendMemory = "memory"
)

// Config is the whole application configuration.
type Config struct {
	Server       Server       `koanf:"server"`
	Log          Log          `koanf:"log"`
	Session      Session      `koanf:"session"`
	Upload       Upload       `koanf:"upload"`
	Verification Verification `koanf:"verification"`
	Pinning      Pinning      `koanf:"pinning"`
	Wallet       Wallet       `koanf:"wallet"`
	Mint         Mint         `koanf:"mint"`
	RateLimit    RateLimit    `koanf:"rate_limit"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr              string        `koanf:"addr"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	// Timeout for outbound calls to the verification and pinning services.
	OutboundTimeout time.Duration `koanf:"outbound_timeout"`
}

// Log selects the slog handler.
type Log struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json, text
}

// Session controls upload session lifetime.
type Session struct {
	TTL           time.Duration `koanf:"ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
	CookieSecure  bool          `koanf:"cookie_secure"`
}

// Upload bounds accepted files and previews.
type Upload struct {
	MaxBytes       int64 `koanf:"max_bytes"`
	MaxPreviewEdge int   `koanf:"max_preview_edge"`
	MaxPixels      int64 `koanf:"max_pixels"` // width*height cap before decoding
}

// ExpectedField is one entry of the expected record.
type ExpectedField struct {
	Key   string `koanf:"key"`
	Label string `koanf:"label"`
	Value string `koanf:"value"`
}

// Verification selects the verification backend and its fixtures.
type Verification struct {
	Mode    string        `koanf:"mode"`
	URL     string        `koanf:"url"`
	Latency time.Duration `koanf:"latency"`
	// Expected replaces the built-in expected record when non-empty.
	Expected []ExpectedField `koanf:"expected"`
	// MockRecord replaces the built-in mock payload when non-empty.
	MockRecord map[string]any `koanf:"mock_record"`
}

// Pinning selects the pinning backend.
type Pinning struct {
	Backend   string `koanf:"backend"`
	JWT       string `koanf:"jwt"`
	Gateway   string `koanf:"gateway"`
	UploadURL string `koanf:"upload_url"`
}

// Wallet is the signing account used for minting.
type Wallet struct {
	Network    string `koanf:"network"`
	AccountID  string `koanf:"account_id"`
	PrivateKey string `koanf:"private_key"`
}

// Mint holds the collection and the metadata written for every asset.
type Mint struct {
	TokenID            string `koanf:"token_id"`
	SupplyKey          string `koanf:"supply_key"`
	Name               string `koanf:"name"`
	Symbol             string `koanf:"symbol"`
	MetadataName       string `koanf:"metadata_name"`
	Description        string `koanf:"description"`
	Issuer             string `koanf:"issuer"`
	RoyaltyBasisPoints int    `koanf:"royalty_basis_points"`
	ExplorerURL        string `koanf:"explorer_url"`
}

// RateLimit caps requests per client IP and window on the write endpoints.
type RateLimit struct {
	Enabled bool          `koanf:"enabled"`
	Window  time.Duration `koanf:"window"`
	Upload  int           `koanf:"upload"`
	Verify  int           `koanf:"verify"`
	Mint    int           `koanf:"mint"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: Server{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			OutboundTimeout:   60 * time.Second,
		},
		Log: Log{Level: "info", Format: "json"},
		Session: Session{
			TTL:           30 * time.Minute,
			SweepInterval: time.Minute,
		},
		Upload: Upload{
			MaxBytes:       10 << 20,
			MaxPreviewEdge: 640,
			MaxPixels:      40_000_000,
		},
		Verification: Verification{
			Mode:    VerificationModeMock,
			Latency: 2 * time.Second,
		},
		Pinning: Pinning{
			Backend:   PinningBackendMemory,
			UploadURL: "https://uploads.pinata.cloud/v3",
		},
		Wallet: Wallet{Network: "testnet"},
		Mint: Mint{
			Name:         "Student Marksheet NFT",
			Symbol:       "MARKS",
			MetadataName: "Marksheet NFT",
			Description:  "NFT representing student marksheet",
			Issuer:       "KJSIT",
			ExplorerURL:  "https://hashscan.io",
		},
		RateLimit: RateLimit{
			Enabled: true,
			Window:  time.Minute,
			Upload:  30,
			Verify:  20,
			Mint:    5,
		},
	}
}

// Load builds the configuration from defaults, the optional TOML file at path
// and environment variables, in that order of precedence.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		}
		k := koanf.New(".")
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return Config{}, fmt.Errorf("error loading config %s: %w", path, err)
		}
		if err := k.Unmarshal("", &cfg); err != nil {
			return Config{}, fmt.Errorf("error unmarshaling config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides cfg from environment variables so deployments can stay
// file-less. The VITE_* names are accepted for existing front-end env files.
func applyEnv(cfg *Config) error {
	setString(&cfg.Server.Addr, "ACADEMIA_ADDR")
	setString(&cfg.Log.Level, "ACADEMIA_LOG_LEVEL")
	setString(&cfg.Log.Format, "ACADEMIA_LOG_FORMAT")

	setString(&cfg.Verification.Mode, "VERIFICATION_MODE")
	setString(&cfg.Verification.URL, "VERIFICATION_URL")
	if raw := firstNonEmptyEnv("VERIFICATION_LATENCY"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("%w: VERIFICATION_LATENCY: %v", ErrInvalidConfig, err)
		}
		cfg.Verification.Latency = d
	}

	setString(&cfg.Pinning.Backend, "PINNING_BACKEND")
	setString(&cfg.Pinning.JWT, "PINATA_JWT", "VITE_PINATA_JWT")
	setString(&cfg.Pinning.Gateway, "PINATA_GATEWAY", "VITE_GATEWAY_URL")
	setString(&cfg.Pinning.UploadURL, "PINATA_UPLOAD_URL")

	setString(&cfg.Wallet.Network, "HEDERA_NETWORK")
	setString(&cfg.Wallet.AccountID, "HEDERA_ACCOUNT_ID", "HEDERA_OPERATOR_ID")
	setString(&cfg.Wallet.PrivateKey, "HEDERA_PRIVATE_KEY", "HEDERA_OPERATOR_KEY")

	setString(&cfg.Mint.TokenID, "HEDERA_TOKEN_ID")
	setString(&cfg.Mint.SupplyKey, "HEDERA_SUPPLY_KEY")
	if raw := firstNonEmptyEnv("MINT_ROYALTY_BASIS_POINTS"); raw != "" {
		bps, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: MINT_ROYALTY_BASIS_POINTS: %v", ErrInvalidConfig, err)
		}
		cfg.Mint.RoyaltyBasisPoints = bps
	}
	return nil
}

// Validate rejects combinations the server cannot start with.
func (c Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Server.Addr) == "" {
		problems = append(problems, "server.addr is required")
	}
	if c.Upload.MaxBytes <= 0 {
		problems = append(problems, "upload.max_bytes must be positive")
	}
	if c.Upload.MaxPreviewEdge <= 0 {
		problems = append(problems, "upload.max_preview_edge must be positive")
	}
	if c.Upload.MaxPixels <= 0 {
		problems = append(problems, "upload.max_pixels must be positive")
	}
	if c.Session.TTL <= 0 {
		problems = append(problems, "session.ttl must be positive")
	}

	switch c.Verification.Mode {
	case VerificationModeMock:
		if c.Verification.Latency < 0 {
			problems = append(problems, "verification.latency cannot be negative")
		}
	case VerificationModeHTTP:
		if strings.TrimSpace(c.Verification.URL) == "" {
			problems = append(problems, "verification.url is required in http mode")
		}
	default:
		problems = append(problems, fmt.Sprintf("verification.mode %q is not one of mock, http", c.Verification.Mode))
	}

	switch c.Pinning.Backend {
	case PinningBackendMemory:
	case PinningBackendPinata:
		if strings.TrimSpace(c.Pinning.JWT) == "" {
			problems = append(problems, "pinning.jwt is required for the pinata backend")
		}
		if strings.TrimSpace(c.Pinning.Gateway) == "" {
			problems = append(problems, "pinning.gateway is required for the pinata backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("pinning.backend %q is not one of pinata, memory", c.Pinning.Backend))
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.Window <= 0 {
			problems = append(problems, "rate_limit.window must be positive")
		}
		if c.RateLimit.Upload <= 0 || c.RateLimit.Verify <= 0 || c.RateLimit.Mint <= 0 {
			problems = append(problems, "rate_limit limits must be positive")
		}
	}

	if c.Mint.RoyaltyBasisPoints < 0 || c.Mint.RoyaltyBasisPoints > 10000 {
		problems = append(problems, "mint.royalty_basis_points must be within 0..10000")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func setString(target *string, keys ...string) {
	if v := firstNonEmptyEnv(keys...); v != "" {
		*target = v
	}
}

func firstNonEmptyEnv(keys ...string) string {
	for _, key := range keys {
		value := strings.TrimSpace(os.Getenv(key))
		if value != "" {
			return value
		}
	}
	return ""
}
