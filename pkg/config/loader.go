package config

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "DATAWORKS_"

// envAliases maps well-known variables that live outside the prefix.
var envAliases = map[string]string{
	"OPENAI_API_KEY":  "tasks.transcribe.api_key",
	"OPENAI_BASE_URL": "tasks.transcribe.base_url",
	"DATA_DIR":        "data.root",
}

// Source contributes a layer of configuration values.
type Source interface {
	Load() (map[string]any, error)
}

// Loader merges defaults, sources and environment into a validated Config.
type Loader struct {
	koanf     *koanf.Koanf
	validator *validator.Validate
	environ   func() []string
}

func NewLoader() *Loader {
	return &Loader{
		koanf:     koanf.New("."),
		validator: validator.New(),
		environ:   os.Environ,
	}
}

// Load applies defaults, then sources in order, then the environment, then
// flag sources. Later layers take precedence.
func (l *Loader) Load(_ context.Context, sources ...Source) (*Config, error) {
	l.koanf = koanf.New(".")
	if err := l.koanf.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	var overrides []Source
	for _, source := range sources {
		if _, ok := source.(flagSource); ok {
			overrides = append(overrides, source)
			continue
		}
		if err := l.apply(source); err != nil {
			return nil, err
		}
	}
	if err := l.loadEnvironment(); err != nil {
		return nil, err
	}
	for _, source := range overrides {
		if err := l.apply(source); err != nil {
			return nil, err
		}
	}
	return l.unmarshalAndValidate()
}

func (l *Loader) apply(source Source) error {
	if source == nil {
		return nil
	}
	data, err := source.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration source: %w", err)
	}
	for key, value := range flattenMap("", data) {
		if err := l.koanf.Set(key, value); err != nil {
			return fmt.Errorf("failed to set key %s: %w", key, err)
		}
	}
	return nil
}

func (l *Loader) loadEnvironment() error {
	provider := env.Provider(".", env.Opt{
		TransformFunc: transformEnvKey,
		EnvironFunc:   l.environ,
	})
	if err := l.koanf.Load(provider, nil); err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}
	return nil
}

// transformEnvKey converts DATAWORKS_TASKS__GIT__REPO_URL into tasks.git.repo_url.
// Variables that are neither prefixed nor aliased are dropped.
func transformEnvKey(key, value string) (string, any) {
	if path, ok := envAliases[key]; ok {
		return path, value
	}
	if !strings.HasPrefix(key, EnvPrefix) {
		return "", nil
	}
	trimmed := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	parts := strings.Split(trimmed, "__")
	for _, part := range parts {
		if part == "" {
			return "", nil
		}
	}
	return strings.Join(parts, "."), value
}

func (l *Loader) unmarshalAndValidate() (*Config, error) {
	var cfg Config
	if err := l.koanf.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				sensitiveStringDecodeHook,
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := l.Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct-tag constraints.
func (l *Loader) Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration cannot be nil")
	}
	if err := l.validator.Struct(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

func sensitiveStringDecodeHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(SensitiveString("")) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return SensitiveString(v), nil
	case []byte:
		return SensitiveString(v), nil
	default:
		return data, nil
	}
}

func flattenMap(prefix string, m map[string]any) map[string]any {
	result := make(map[string]any)
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			for fk, fv := range flattenMap(key, nested) {
				result[fk] = fv
			}
			continue
		}
		result[key] = v
	}
	return result
}

type yamlSource struct {
	path string
}

// NewYAMLSource reads a YAML file. A missing file contributes nothing.
func NewYAMLSource(path string) Source {
	return &yamlSource{path: path}
}

func (y *yamlSource) Load() (map[string]any, error) {
	if y.path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(y.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", y.path, err)
	}
	out := make(map[string]any)
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", y.path, err)
	}
	return out, nil
}

type mapSource map[string]any

// NewMapSource wraps values keyed by dotted config paths.
func NewMapSource(values map[string]any) Source {
	return mapSource(values)
}

func (m mapSource) Load() (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out, nil
}

type flagSource map[string]any

// NewFlagSource wraps command-line overrides keyed by dotted config paths.
// Flag sources win over the environment.
func NewFlagSource(values map[string]any) Source {
	return flagSource(values)
}

func (f flagSource) Load() (map[string]any, error) {
	return mapSource(f).Load()
}
