package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"pdf2text/internal/ocr"
	"pdf2text/internal/pdf"
)

// ErrNoEngine is returned when no extraction engine is selected.
var ErrNoEngine = eris.New("at least one extraction engine is required (--pdfplumber or --pdfminer)")

// Config holds all configuration for the application
type Config struct {
	// Directory settings
	SourceDir string `yaml:"source_dir"`
	TargetDir string `yaml:"target_dir"`

	// Extraction settings
	Engines []string `yaml:"engines"`

	// OCR settings
	OCREnabled   bool     `yaml:"ocr"`
	OCRCommand   string   `yaml:"ocr_command"`
	OCRLanguages []string `yaml:"ocr_languages"`

	// Logging settings
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Watch settings
	WatchSchedule string `yaml:"watch_schedule"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return &Config{
		SourceDir:     cwd,
		TargetDir:     cwd,
		OCRCommand:    ocr.DefaultCommand,
		LogLevel:      "info",
		LogFormat:     "json",
		WatchSchedule: "@every 5m",
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, in that order. When file is empty the
// PDF2TEXT_CONFIG environment variable names the file, if set.
func Load(file string) (*Config, error) {
	base := Defaults()

	if file == "" {
		file = os.Getenv("PDF2TEXT_CONFIG")
	}
	if file != "" {
		if err := readFile(file, base); err != nil {
			return nil, err
		}
	}

	config := &Config{
		SourceDir: getEnvOrDefault("SOURCE_DIR", base.SourceDir),
		TargetDir: getEnvOrDefault("TARGET_DIR", base.TargetDir),

		Engines: getEnvSliceOrDefault("ENGINES", base.Engines),

		OCREnabled:   getEnvBoolOrDefault("OCR_ENABLED", base.OCREnabled),
		OCRCommand:   getEnvOrDefault("OCR_COMMAND", base.OCRCommand),
		OCRLanguages: getEnvSliceOrDefault("OCR_LANGUAGES", base.OCRLanguages),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", base.LogLevel),
		LogFormat: getEnvOrDefault("LOG_FORMAT", base.LogFormat),

		WatchSchedule: getEnvOrDefault("WATCH_SCHEDULE", base.WatchSchedule),
	}

	return config, nil
}

func readFile(path string, into *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "read config file %s", path)
	}
	if err := yaml.Unmarshal(data, into); err != nil {
		return eris.Wrapf(err, "parse config file %s", path)
	}
	return nil
}

// Validate checks that the configuration can drive a conversion.
func (c *Config) Validate() error {
	if len(c.Engines) == 0 {
		return ErrNoEngine
	}
	for _, name := range c.Engines {
		if _, err := pdf.Lookup(name); err != nil {
			return err
		}
	}
	if c.OCREnabled && c.OCRCommand == "" {
		return eris.New("OCR_COMMAND is required when OCR is enabled")
	}
	return nil
}

// AddEngine selects the named engine unless it already is.
func (c *Config) AddEngine(name string) {
	for _, e := range c.Engines {
		if e == name {
			return
		}
	}
	c.Engines = append(c.Engines, name)
}

// Helper functions for environment variables
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		// Try to parse as JSON array first
		var jsonArray []string
		if err := json.Unmarshal([]byte(value), &jsonArray); err == nil {
			return jsonArray
		}

		var values []string
		for _, v := range strings.Split(value, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
		return values
	}
	return defaultValue
}
