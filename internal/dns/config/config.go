package config

import (
	"flag"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from defaults, environment
// variables and command line flags, in increasing order of precedence.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// Listen is the ip:port the UDP server binds to.
	Listen string `koanf:"listen" validate:"required,ip_port"`

	// Resolver is the upstream host:port. Empty selects local synthesis.
	Resolver string `koanf:"resolver" validate:"omitempty,hostname_port|ip_port"`

	// UpstreamTimeout bounds each upstream exchange. Zero waits until shutdown.
	UpstreamTimeout time.Duration `koanf:"upstream_timeout" validate:"gte=0"`

	CacheEnabled bool          `koanf:"cache_enabled"`
	CacheSize    int           `koanf:"cache_size" validate:"gte=1"`
	CacheTTL     time.Duration `koanf:"cache_ttl" validate:"gt=0"`

	// CacheSnapshot is a bbolt file the cache is restored from and saved to.
	CacheSnapshot string `koanf:"cache_snapshot"`

	// BlocklistFile is a plain list of domains that are never answered.
	BlocklistFile string `koanf:"blocklist_file"`
}

// Forwarding reports whether an upstream resolver is configured.
func (c *AppConfig) Forwarding() bool {
	return c.Resolver != ""
}

// DEFAULT_APP_CONFIG defines the default application configuration settings for the DNS service.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:             "prod",
	LogLevel:        "info",
	Listen:          "127.0.0.1:2053",
	Resolver:        "",
	UpstreamTimeout: 0,
	CacheEnabled:    false,
	CacheSize:       1000,
	CacheTTL:        60 * time.Second,
	CacheSnapshot:   "",
	BlocklistFile:   "",
}

// validIPPort validates whether the provided field value is a valid IP address and port combination.
// It expects the value to be in the format "IP:Port". The function returns true if the IP address
// is valid and both the IP and port are non-empty; otherwise, it returns false.
func validIPPort(fl validator.FieldLevel) bool {
	addr := fl.Field().String()
	ip, port, err := net.SplitHostPort(addr)
	if err != nil || ip == "" || port == "" {
		return false
	}
	if net.ParseIP(ip) == nil {
		return false
	}
	portNum, err := strconv.ParseUint(port, 10, 16)
	return err == nil && portNum > 0 && portNum < 65536
}

// envLoader is a function that loads environment variables with the prefix "DNS_".
// It transforms the keys to lowercase and removes the prefix,
// and can be mocked in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "DNS_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "DNS_"))
			return key, strings.TrimSpace(value)
		},
	}), nil)
}

// defaultLoader loads default configuration values into the provided Koanf instance
// using the structs provider and the DEFAULT_APP_CONFIG struct. It returns an error
// if loading fails.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// flagLoader parses args and layers only the flags that were explicitly
// set, so an absent flag never masks an environment value.
var flagLoader = func(k *koanf.Koanf, args []string) error {
	fs := flag.NewFlagSet("fwd-dnsd", flag.ContinueOnError)
	fs.String("listen", DEFAULT_APP_CONFIG.Listen, "UDP `address` to listen on (ip:port)")
	fs.String("resolver", "", "forward questions to this upstream `address` (host:port)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	set := make(map[string]any)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = f.Value.String()
	})
	return k.Load(confmap.Provider(set, "."), nil)
}

// registerValidation registers a custom validation function "ip_port" with the provided validator.
// It associates the "ip_port" tag with the validIPPort validation logic.
// Returns an error if registration fails.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("ip_port", validIPPort)
}

// Load builds an AppConfig from defaults, the environment and args (the
// command line without the program name), then validates it. A "-h" flag
// yields flag.ErrHelp.
func Load(args []string) (*AppConfig, error) {
	k := koanf.New(".")

	err := defaultLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	err = envLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	err = flagLoader(k, args)
	if err != nil {
		return nil, fmt.Errorf("error loading flags: %w", err)
	}

	var cfg AppConfig

	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	err = registerValidation(validate)
	if err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	err = validate.Struct(&cfg)
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
