package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mchmarny/cargoscan/pkg/manifest"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	FileName = "config.yaml"

	dirMode  = 0700
	fileMode = 0600

	serverPortDefault         = 8080
	serverUsernameDefault     = "operator"
	sessionTTLDefault         = 12 * time.Hour
	maxUploadMegabytesDefault = 32
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config represents the app config file.
type Config struct {
	Engine manifest.Config `json:"engine" yaml:"engine"`
	Server ServerConfig    `json:"server" yaml:"server" validate:"required"`
}

// ServerConfig holds settings of the local web UI.
type ServerConfig struct {
	Port               int           `json:"port" yaml:"port" validate:"min=1,max=65535"`
	Username           string        `json:"username" yaml:"username" validate:"required,printascii,max=64"`
	SessionTTL         time.Duration `json:"session_ttl" yaml:"sessionTTL" validate:"min=1m"`
	MaxUploadMegabytes int           `json:"max_upload_megabytes" yaml:"maxUploadMegabytes" validate:"min=1,max=1024"`
}

// Default returns the config written on first run.
func Default() *Config {
	return &Config{
		Engine: manifest.DefaultConfig(),
		Server: ServerConfig{
			Port:               serverPortDefault,
			Username:           serverUsernameDefault,
			SessionTTL:         sessionTTLDefault,
			MaxUploadMegabytes: maxUploadMegabytesDefault,
		},
	}
}

// sanitize trims free text values. Keys missing from the file already hold
// their defaults because decoding starts from Default.
func (c *Config) sanitize() {
	c.Server.Username = strings.TrimSpace(c.Server.Username)
}

// Validate checks the value ranges of c.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return validationError(err)
	}

	engine := []struct {
		name  string
		value any
		tag   string
	}{
		{"engine.valueDensityThreshold", c.Engine.ValueDensityThreshold, "gte=0"},
		{"engine.abnormalWeightThreshold", c.Engine.AbnormalWeightThreshold, "gte=0"},
		{"engine.topN", c.Engine.TopN, "gte=1"},
		{"engine.workers", c.Engine.Workers, "gte=0,lte=256"},
		{"engine.suspiciousTerms", c.Engine.SuspiciousTerms, "dive,required"},
		{"engine.riskyCountries", c.Engine.RiskyCountries, "dive,required"},
		{"engine.riskyAreas", c.Engine.RiskyAreas, "dive,required"},
	}
	for _, e := range engine {
		if err := validate.Var(e.value, e.tag); err != nil {
			return errors.Errorf("invalid %s: rule '%s' not met by %v", e.name, e.tag, e.value)
		}
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: rule '%s' expected '%s', got '%v'", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
	}
	return errors.New("invalid config: " + strings.Join(msgs, "; "))
}

// Save writes c into dirPath.
func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	return SaveAs(filepath.Join(dirPath, FileName), c)
}

// SaveAs writes c to the file at path.
func SaveAs(path string, c *Config) error {
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return errors.Wrapf(err, "failed to write config file: %s", path)
	}
	return nil
}

// ReadOrCreate reads app config from directory or creates a new one.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if _, err := os.Stat(dirPath); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(dirPath, dirMode); err != nil {
			return nil, errors.Wrapf(err, "failed to create dir: %s", dirPath)
		}
	}

	path := filepath.Join(dirPath, FileName)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating default config", "path", path)
		if err := Save(dirPath, Default()); err != nil {
			return nil, errors.Wrap(err, "failed to create default config")
		}
	}

	return Load(path)
}

// Load reads the config file at path. Keys missing from the file keep their default values.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading config file: %s", path)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, errors.Wrapf(err, "error unmarshalling config file: %s", path)
	}
	c.sanitize()
	if err := c.Validate(); err != nil {
		return nil, errors.Wrapf(err, "error validating config file: %s", path)
	}

	slog.Debug("config loaded", "path", path,
		"terms", len(c.Engine.SuspiciousTerms),
		"countries", len(c.Engine.RiskyCountries),
		"areas", len(c.Engine.RiskyAreas),
		"top", c.Engine.TopN)
	return c, nil
}

// GetOrCreateHomeDir returns the app directory in the user home.
// The create flag is set to true if the directory was created.
func GetOrCreateHomeDir(name string) (path string, created bool, err error) {
	if name == "" {
		return "", false, errors.New("name cannot be empty")
	}

	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, errors.Wrap(err, "failed to get user home dir")
	}

	dir := filepath.Join(home, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating dir", "path", dir)
		if err := os.Mkdir(dir, dirMode); err != nil {
			return "", false, errors.Wrapf(err, "failed to create dir: %s", dir)
		}
		created = true
	}
	return dir, created, nil
}
