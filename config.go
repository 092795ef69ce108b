package hxnav

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Environment config keys set by the framework.
const (
	EnvAppRoot      = "appRoot"
	EnvDebug        = "debug"
	EnvClientAppURL = "clientAppUrl"
)

// DefaultAddr is the listen address when none is configured.
const DefaultAddr = ":8080"

// configValidate is the validator instance for Config.
// Initialized in init() with the app root rules.
var configValidate *validator.Validate

func init() {
	configValidate = validator.New()
	_ = configValidate.RegisterValidation("leadingslash", func(fl validator.FieldLevel) bool {
		return strings.HasPrefix(fl.Field().String(), "/")
	})
	_ = configValidate.RegisterValidation("notrailingslash", func(fl validator.FieldLevel) bool {
		return !strings.HasSuffix(fl.Field().String(), "/")
	})
}

// Config holds the application settings shared by server and client.
//
//	addr: ":8080"
//	app_root: /blog
//	client_app_url: /static/app.wasm
//	state_key: change-me
//	seal_state: true
//	environment:
//	  apiHost: https://api.example.com
type Config struct {
	Addr         string         `yaml:"addr"`
	AppRoot      string         `yaml:"app_root" validate:"omitempty,leadingslash,notrailingslash"`
	ClientAppURL string         `yaml:"client_app_url" validate:"required"`
	Debug        bool           `yaml:"debug"`
	StateKey     string         `yaml:"state_key"`
	SealState    bool           `yaml:"seal_state"`
	LogLevel     string         `yaml:"log_level"`
	Environment  map[string]any `yaml:"environment"`
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("hxnav: read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes and validates YAML config.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the config. Every failure wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: missing config", ErrInvalidConfig)
	}
	err := configValidate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeConfigError(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

func describeConfigError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "leadingslash":
		return "you must include leading slash when providing an app root"
	case "notrailingslash":
		return "you must omit trailing slash when providing an app root"
	case "required":
		if fe.Field() == "ClientAppURL" {
			return "you must specify the url of the client app"
		}
		return fmt.Sprintf("%s is required", fe.Field())
	default:
		return fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag())
	}
}

// EnvironmentConfig builds the settings passed to every navigation: the
// environment map plus the framework keys.
func (c *Config) EnvironmentConfig() EnvironmentConfig {
	env := make(EnvironmentConfig, len(c.Environment)+3)
	for k, v := range c.Environment {
		env[k] = v
	}
	env[EnvAppRoot] = c.AppRoot
	env[EnvDebug] = c.Debug
	env[EnvClientAppURL] = c.ClientAppURL
	return env
}

// EnvironmentConfig is the environment-wide settings map shared by all
// navigations. It is serialized into the server page so the client sees the
// same values.
type EnvironmentConfig map[string]any

// String returns the value at key if it is a string.
func (c EnvironmentConfig) String(key string) string {
	s, _ := c[key].(string)
	return s
}

// AppRoot returns the path prefix the application is mounted under.
func (c EnvironmentConfig) AppRoot() string { return c.String(EnvAppRoot) }

// Debug reports whether debug mode is on.
func (c EnvironmentConfig) Debug() bool {
	b, _ := c[EnvDebug].(bool)
	return b
}

// Decode copies the map into out, a pointer to a struct, matching keys to
// field names or mapstructure tags.
//
//	var settings struct{ APIHost string `mapstructure:"apiHost"` }
//	err := req.EnvironmentConfig.Decode(&settings)
func (c EnvironmentConfig) Decode(out any) error {
	return decodeLoose(map[string]any(c), out)
}

// Clone returns a shallow copy.
func (c EnvironmentConfig) Clone() EnvironmentConfig {
	if c == nil {
		return EnvironmentConfig{}
	}
	out := make(EnvironmentConfig, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

func decodeLoose(in, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}
