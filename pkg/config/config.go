package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Address string `yaml:"address"`
		Port    int    `yaml:"port"`
		// Engine selects the serving transport: "nethttp" (default) or
		// "fasthttp".
		Engine string `yaml:"engine"`
		TLS    struct {
			CertFile string `yaml:"cert_file"`
			KeyFile  string `yaml:"key_file"`
		} `yaml:"tls"`
	} `yaml:"server"`
	Storage struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"storage"`
	Security struct {
		CORS struct {
			AllowedOrigins []string `yaml:"allowed_origins"`
		} `yaml:"cors"`
		RateLimit struct {
			RPS   float64 `yaml:"rps"`
			Burst int     `yaml:"burst"`
		} `yaml:"rate_limit"`
		IPWhitelist []string `yaml:"ip_whitelist"`
	} `yaml:"security"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
	Validation struct {
		MaxContentLen int `yaml:"max_content_len"`
	} `yaml:"validation"`
	Repair struct {
		Enabled bool   `yaml:"enabled"`
		Cron    string `yaml:"cron"`
	} `yaml:"repair"`
	Poll struct {
		// Interval between reconciliation ticks for client binaries,
		// as a Go duration string (e.g. "2s").
		Interval string `yaml:"interval"`
	} `yaml:"poll"`
}

// PollInterval returns the configured reconciliation interval, defaulting to
// two seconds when unset or malformed.
func (c *Config) PollInterval() time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(c.Poll.Interval)); err == nil && d > 0 {
		return d
	}
	return 2 * time.Second
}

// Addr returns host:port for the HTTP server.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = "0.0.0.0"
	}
	p := c.Server.Port
	if p == 0 {
		p = 8080
	}
	return fmt.Sprintf("%s:%d", addr, p)
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseCommandFlags defines and parses command-line flags and returns their
// values along with a map indicating which flags were explicitly set.
func ParseCommandFlags() (addr string, dbPath string, cfgPath string, setFlags map[string]bool) {
	addrPtr := flag.String("addr", ":8080", "HTTP listen address")
	dbPtr := flag.String("db", "./.database", "Pebble DB path")
	cfgPtr := flag.String("config", "./config.yaml", "Path to config file")
	flag.Parse()
	setFlags = map[string]bool{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return *addrPtr, *dbPtr, *cfgPtr, setFlags
}

// ResolveConfigPath returns the config path to use: the flag value when the
// user set it explicitly, else CHATSYNC_CONFIG, else the flag default.
func ResolveConfigPath(flagVal string, flagSet bool) string {
	if flagSet {
		return flagVal
	}
	if v := strings.TrimSpace(os.Getenv("CHATSYNC_CONFIG")); v != "" {
		return v
	}
	return flagVal
}

// ApplyEnvOverrides applies CHATSYNC_* environment overrides onto cfg and
// reports whether any env var was used.
func ApplyEnvOverrides(cfg *Config) bool {
	envUsed := false
	parseList := func(v string) []string {
		var parts []string
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				parts = append(parts, s)
			}
		}
		return parts
	}

	if v := os.Getenv("CHATSYNC_ADDR"); v != "" {
		envUsed = true
		if h, p, err := net.SplitHostPort(v); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		} else {
			cfg.Server.Address = v
		}
	}
	if v := os.Getenv("CHATSYNC_DB_PATH"); v != "" {
		envUsed = true
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("CHATSYNC_ENGINE"); v != "" {
		envUsed = true
		cfg.Server.Engine = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("CHATSYNC_CORS_ORIGINS"); v != "" {
		envUsed = true
		cfg.Security.CORS.AllowedOrigins = parseList(v)
	}
	if v := os.Getenv("CHATSYNC_RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			envUsed = true
			cfg.Security.RateLimit.RPS = f
		}
	}
	if v := os.Getenv("CHATSYNC_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Security.RateLimit.Burst = n
		}
	}
	if v := os.Getenv("CHATSYNC_IP_WHITELIST"); v != "" {
		envUsed = true
		cfg.Security.IPWhitelist = parseList(v)
	}
	if v := os.Getenv("CHATSYNC_LOG_LEVEL"); v != "" {
		envUsed = true
		cfg.Logging.Level = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("CHATSYNC_MAX_CONTENT_LEN"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Validation.MaxContentLen = n
		}
	}
	if v := os.Getenv("CHATSYNC_REPAIR_CRON"); v != "" {
		envUsed = true
		cfg.Repair.Enabled = true
		cfg.Repair.Cron = strings.TrimSpace(v)
	}
	if v := os.Getenv("CHATSYNC_POLL_INTERVAL"); v != "" {
		if _, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Poll.Interval = strings.TrimSpace(v)
		}
	}
	return envUsed
}

// EffectiveConfigResult holds the merged configuration plus provenance for
// the startup banner.
type EffectiveConfigResult struct {
	Config *Config
	Addr   string
	DBPath string
	Source string // "flags", "config", "env", or a combination
}

// LoadEffective merges config file, environment and flags. Precedence:
// explicit flags > env > file > flag defaults.
func LoadEffective(addrFlag, dbFlag, cfgPath string, setFlags map[string]bool) (EffectiveConfigResult, error) {
	var res EffectiveConfigResult

	cfg, err := Load(cfgPath)
	fileUsed := err == nil
	if err != nil {
		if !os.IsNotExist(err) {
			return res, fmt.Errorf("failed to parse config %s: %w", cfgPath, err)
		}
		if setFlags["config"] {
			return res, fmt.Errorf("config file not found: %s", cfgPath)
		}
		cfg = &Config{}
	}

	envUsed := ApplyEnvOverrides(cfg)

	addr := cfg.Addr()
	if setFlags["addr"] {
		addr = addrFlag
	}
	dbPath := cfg.Storage.DBPath
	if setFlags["db"] || dbPath == "" {
		dbPath = dbFlag
	}

	var srcs []string
	if len(setFlags) > 0 {
		srcs = append(srcs, "flags")
	}
	if envUsed {
		srcs = append(srcs, "env")
	}
	if fileUsed {
		srcs = append(srcs, "config")
	}
	if len(srcs) == 0 {
		srcs = append(srcs, "defaults")
	}

	res.Config = cfg
	res.Addr = addr
	res.DBPath = dbPath
	res.Source = strings.Join(srcs, ", ")
	return res, nil
}
