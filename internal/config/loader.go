package config

import (
	"log/slog"
	"os"
	"path/filepath"
)

// ProjectConfigFile is the name of the project-level config file.
const ProjectConfigFile = ".yarrrml.yaml"

// Loader handles configuration loading with layered precedence.
type Loader struct {
	logger *slog.Logger
	dir    string
}

// NewLoader creates a loader that searches for project config from dir.
// An empty dir means the working directory.
func NewLoader(logger *slog.Logger, dir string) *Loader {
	if logger == nil {
		logger = slog.Default()
	}

	return &Loader{logger: logger, dir: dir}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. Project config (.yarrrml.yaml in dir or a parent), or path when set
func (l *Loader) Load(path string) (*Config, error) {
	config := DefaultConfig()

	if path == "" {
		path = l.findProjectConfig()
		if path == "" {
			l.logger.Debug("No project config found")
			return config, config.Validate()
		}
	}

	fileConfig, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}

	l.logger.Debug("Loaded config", slog.String("path", path))
	config.Merge(fileConfig)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// findProjectConfig searches for the project file in dir and its parents.
func (l *Loader) findProjectConfig() string {
	dir := l.dir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return ""
		}

		dir = cwd
	}

	dir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if info, err := os.Stat(configPath); err == nil && !info.IsDir() {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}

		dir = parent
	}
}
