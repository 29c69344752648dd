package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrEnvFileNotFound is returned when no env file exists at any candidate
// location. Callers treat it as a warning.
var ErrEnvFileNotFound = errors.New("env file not found")

// Loader handles configuration loading from multiple sources.
type Loader struct {
	configPath string
	envFile    string
	envPrefix  string
}

// NewLoader creates a config loader.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
		envPrefix:  "TOGGLECRYPT",
	}
}

// WithEnvFile pins the env file instead of searching default locations.
func (l *Loader) WithEnvFile(path string) *Loader {
	l.envFile = path
	return l
}

// LoadEnvFile exports the first env file found into the process
// environment and returns its path.
func (l *Loader) LoadEnvFile() (string, error) {
	candidates := l.envFileCandidates()

	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if _, err := LoadEnvFile(path); err != nil {
			return path, err
		}
		return path, nil
	}

	return "", fmt.Errorf("%w (searched %s)", ErrEnvFileNotFound, strings.Join(candidates, ", "))
}

func (l *Loader) envFileCandidates() []string {
	if l.envFile != "" {
		return []string{l.envFile}
	}

	paths := []string{".env"}
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "togglecrypt", ".env"))
	}
	return paths
}

// LoadEnvFile parses a dotenv file and sets every entry that is not
// already present in the environment. Key case is preserved and an
// unquoted '#' only starts a comment after whitespace. It returns the
// number of variables set.
func LoadEnvFile(path string) (int, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return 0, fmt.Errorf("read env file %s: %w", path, err)
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	set := 0
	for _, name := range names {
		if _, exists := os.LookupEnv(name); exists {
			continue
		}
		if err := os.Setenv(name, values[name]); err != nil {
			return set, fmt.Errorf("set %s: %w", name, err)
		}
		set++
	}

	return set, nil
}

// Load reads configuration from defaults, file and environment.
func (l *Loader) Load() (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(l.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load from file if exists
	if l.configPath != "" {
		v.SetConfigFile(l.configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	} else {
		// Try default locations
		for _, path := range l.defaultPaths() {
			if _, err := os.Stat(path); err == nil {
				l.configPath = path
				v.SetConfigFile(path)
				if err := v.ReadInConfig(); err != nil {
					return nil, fmt.Errorf("load config file %s: %w", path, err)
				}
				break
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	cfg.Journal.Backend = strings.ToLower(cfg.Journal.Backend)

	// Validate final config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ConfigPath returns the config file used by the last Load, if any.
func (l *Loader) ConfigPath() string {
	return l.configPath
}

// defaultPaths returns default config file locations.
func (l *Loader) defaultPaths() []string {
	paths := []string{
		"togglecrypt.yaml",
		".togglecrypt.yaml",
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(homeDir, ".config", "togglecrypt", "config.yaml"),
		)
	}

	return paths
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("toggle.wait_on_error", d.Toggle.WaitOnError)
	v.SetDefault("toggle.error_pause", d.Toggle.ErrorPause)

	v.SetDefault("storage.max_file_size", d.Storage.MaxFileSize)
	v.SetDefault("storage.shred_command", d.Storage.ShredCommand)
	v.SetDefault("storage.shred_args", d.Storage.ShredArgs)

	v.SetDefault("credentials.non_interactive_var", d.Credentials.NonInteractiveVar)
	v.SetDefault("credentials.password_var", d.Credentials.PasswordVar)

	v.SetDefault("journal.backend", d.Journal.Backend)
	v.SetDefault("journal.path", d.Journal.Path)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.color", d.Log.Color)
	v.SetDefault("log.timestamp", d.Log.Timestamp)
}
