package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type CatalogConfig struct {
	Enabled         bool     `yaml:"enabled"`
	DBPath          string   `yaml:"db_path"`
	MaxFileSize     int64    `yaml:"max_file_size"`
	MaxQueueSize    int      `yaml:"max_queue_size"`
	WorkerCount     int      `yaml:"worker_count"`
	RateLimit       int      `yaml:"rate_limit"`
	ExcludePatterns []string `yaml:"exclude_patterns"`
}

type EngineConfig struct {
	BlenderPath   string        `yaml:"blender_path"`
	MeshLabPath   string        `yaml:"meshlab_path"`
	Timeout       time.Duration `yaml:"timeout"`
	KeepTempFiles bool          `yaml:"keep_temp_files"`
}

type WatcherConfig struct {
	Enabled        bool          `yaml:"enabled"`
	DebounceWindow time.Duration `yaml:"debounce_window"`
	MaxBatchSize   int           `yaml:"max_batch_size"`
	IgnorePatterns []string      `yaml:"ignore_patterns"`
	WatchHidden    bool          `yaml:"watch_hidden"`
}

type Config struct {
	SocketPath    string        `yaml:"socket_path"`
	HTTPAddr      string        `yaml:"http_addr"`
	LogLevel      string        `yaml:"log_level"`
	LogFormat     string        `yaml:"log_format"`
	LogFile       string        `yaml:"log_file"`
	InputFolder   string        `yaml:"input_folder"`
	OutputFolder  string        `yaml:"output_folder"`
	PreviewFolder string        `yaml:"preview_folder"`
	ExecTimeout   time.Duration `yaml:"exec_timeout"`
	Catalog       CatalogConfig `yaml:"catalog"`
	Engines       EngineConfig  `yaml:"engines"`
	Watcher       WatcherConfig `yaml:"watcher"`
}

func baseDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".geomnodes")
}

// Load returns the built-in defaults, overlaid with ~/.geomnodes/config.yaml
// when that file exists.
func Load() *Config {
	cfg := defaults()

	path := filepath.Join(baseDir(), "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "geomnodes: ignoring malformed config %s: %v\n", path, err)
		return defaults()
	}

	return cfg
}

func defaults() *Config {
	dir := baseDir()

	return &Config{
		SocketPath:    filepath.Join(dir, "daemon.sock"),
		HTTPAddr:      "127.0.0.1:8189",
		LogLevel:      "info",
		LogFormat:     "text",
		LogFile:       "",
		InputFolder:   filepath.Join(dir, "input"),
		OutputFolder:  filepath.Join(dir, "output"),
		PreviewFolder: filepath.Join(dir, "preview"),
		ExecTimeout:   4 * time.Minute,
		Catalog: CatalogConfig{
			Enabled:      true,
			DBPath:       filepath.Join(dir, "catalog.db"),
			MaxFileSize:  512 * 1024 * 1024,
			MaxQueueSize: 1000,
			WorkerCount:  2,
			RateLimit:    100,
			ExcludePatterns: []string{
				"**/.git/**",
				"**/.cache/**",
				"**/*.tmp",
				"**/*.blend1",
			},
		},
		Engines: EngineConfig{
			BlenderPath: "",
			MeshLabPath: "",
			Timeout:     300 * time.Second,
		},
		Watcher: WatcherConfig{
			Enabled:        true,
			DebounceWindow: 300 * time.Millisecond,
			MaxBatchSize:   100,
			IgnorePatterns: []string{
				"**/.git/**",
				"**/*.tmp",
				"**/*.swp",
				"**/preview_*.glb",
			},
			WatchHidden: false,
		},
	}
}

func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(baseDir(), 0700); err != nil {
		return err
	}
	for _, dir := range []string{c.InputFolder, c.OutputFolder, c.PreviewFolder} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
