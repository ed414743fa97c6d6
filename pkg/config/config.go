package config

import (
	"time"
)

// Config is the complete runtime configuration of a dataworks process.
type Config struct {
	Data       DataConfig       `koanf:"data"`
	HTTP       HTTPConfig       `koanf:"http"`
	Server     ServerConfig     `koanf:"server"`
	Monitoring MonitoringConfig `koanf:"monitoring"`
	Tasks      TasksConfig      `koanf:"tasks"`
}

// DataConfig locates the sandboxed data directory every task works in.
type DataConfig struct {
	Root     string `koanf:"root"      validate:"required"`
	LockFile string `koanf:"lock_file" validate:"required"`
}

// HTTPConfig bounds outbound network calls.
type HTTPConfig struct {
	Timeout   time.Duration `koanf:"timeout"    validate:"gt=0"`
	UserAgent string        `koanf:"user_agent"`
}

type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port" validate:"min=1,max=65535"`
}

type MonitoringConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"    validate:"required,startswith=/"`
}

// TasksConfig carries the fixed inputs of the built-in tasks.
type TasksConfig struct {
	Fetch      FetchConfig      `koanf:"fetch"`
	Git        GitConfig        `koanf:"git"`
	Scrape     ScrapeConfig     `koanf:"scrape"`
	Image      ImageConfig      `koanf:"image"`
	Transcribe TranscribeConfig `koanf:"transcribe"`
}

type FetchConfig struct {
	URL string `koanf:"url" validate:"required,url"`
}

type GitConfig struct {
	RepoURL     string        `koanf:"repo_url"     validate:"required"`
	Backend     string        `koanf:"backend"      validate:"oneof=cli gogit"`
	Binary      string        `koanf:"binary"`
	Timeout     time.Duration `koanf:"timeout"      validate:"gt=0"`
	AuthorName  string        `koanf:"author_name"  validate:"required"`
	AuthorEmail string        `koanf:"author_email" validate:"required,email"`
}

type ScrapeConfig struct {
	URL string `koanf:"url" validate:"required,url"`
}

type ImageConfig struct {
	Quality int `koanf:"quality" validate:"min=1,max=100"`
}

type TranscribeConfig struct {
	APIKey  SensitiveString `koanf:"api_key"`
	BaseURL string          `koanf:"base_url"`
	Model   string          `koanf:"model"    validate:"required"`
}

// SensitiveString hides its value when printed or logged.
type SensitiveString string

func (s SensitiveString) String() string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}

func (s SensitiveString) Value() string {
	return string(s)
}

// MarshalJSON prevents secrets from leaking through serialized configs.
func (s SensitiveString) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Root:     "/data",
			LockFile: ".dataworks.lock",
		},
		HTTP: HTTPConfig{
			Timeout:   20 * time.Second,
			UserAgent: "dataworks/1.0",
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Monitoring: MonitoringConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Tasks: TasksConfig{
			Fetch: FetchConfig{
				URL: "https://jsonplaceholder.typicode.com/todos/1",
			},
			Git: GitConfig{
				RepoURL:     "https://github.com/sanand0/tools-in-data-science-public.git",
				Backend:     "cli",
				Binary:      "git",
				Timeout:     5 * time.Minute,
				AuthorName:  "DataWorks Agent",
				AuthorEmail: "agent@dataworks.local",
			},
			Scrape: ScrapeConfig{
				URL: "https://www.example.com",
			},
			Image: ImageConfig{
				Quality: 85,
			},
			Transcribe: TranscribeConfig{
				Model: "whisper-1",
			},
		},
	}
}
