// Package twcfg loads and validates the learner's YAML configuration,
// grounded on theRebelliousNerd-codenerd's internal/config.Config
// (gopkg.in/yaml.v3, Load/Validate shape) and replacing
// original_source/twlconfig.py's exec'd Python config module with a typed
// struct plus a validation pass that mirrors validate_config's behavior of
// reporting every missing key rather than stopping at the first.
package twcfg

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/apertium-contrib/twlearn"
)

// Error codes used by twcfg.
const (
	// ReadError indicates the config file could not be read.
	ReadError = twerr.DriverErrors + iota

	// ParseError indicates the config file is not valid YAML.
	ParseError

	// ValidationError indicates one or more required keys are missing or invalid.
	ValidationError
)

// Mode selects which corpus-driven learning procedure to run.
type Mode string

const (
	ModeMono     Mode = "mono"
	ModeParallel Mode = "parallel"
)

// Config is the learner's full configuration, mirroring twlconfig.py's module-level variables.
type Config struct {
	Mode                 Mode   `yaml:"mode"`
	ApertiumPairName     string `yaml:"apertium_pair_name"`
	ApertiumPairData     string `yaml:"apertium_pair_data"`
	Source               string `yaml:"source"`
	Target               string `yaml:"target"`
	SourceLanguageCorpus string `yaml:"source_language_corpus"`
	TargetLanguageCorpus string `yaml:"target_language_corpus"`
	LanguageModel        string `yaml:"language_model"`
	DataFolder           string `yaml:"data_folder"`

	// FnameCommonPrefix overrides the derived prefix for intermediate files
	// (make_prefix's fname_common_prefix attribute, optional).
	FnameCommonPrefix string `yaml:"fname_common_prefix"`
}

// Load reads and parses a YAML config file. It does not validate; call Validate separately.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, twerr.FormatError(ReadError, "read config %q: %s", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, twerr.FormatError(ParseError, "parse config %q: %s", path, err)
	}

	return &cfg, nil
}

// Validate checks cfg against the rules validate_config applies, collecting
// every problem found instead of stopping at the first so a user fixes their
// config file in one pass.
func (cfg *Config) Validate() []error {
	var errs []error

	add := func(format string, args ...any) {
		errs = append(errs, twerr.FormatError(ValidationError, format, args...))
	}

	switch cfg.Mode {
	case ModeMono, ModeParallel:
	case "":
		add(`undefined mode: specify "mono" or "parallel"`)
	default:
		add(`invalid mode %q: specify "mono" or "parallel"`, cfg.Mode)
	}

	if cfg.ApertiumPairName == "" {
		add("undefined apertium_pair_name")
	}

	if cfg.ApertiumPairData == "" {
		add("undefined apertium_pair_data")
	} else if _, err := os.Stat(cfg.ApertiumPairData); err != nil {
		add("apertium_pair_data folder %q not found", cfg.ApertiumPairData)
	}

	if cfg.Source == "" || cfg.Target == "" {
		add("undefined direction: source and/or target")
	}

	if cfg.SourceLanguageCorpus == "" {
		add("undefined source_language_corpus")
	} else if _, err := os.Stat(cfg.SourceLanguageCorpus); err != nil {
		add("source_language_corpus %q not found", cfg.SourceLanguageCorpus)
	}

	switch cfg.Mode {
	case ModeMono:
		if cfg.LanguageModel == "" {
			add("undefined language_model")
		} else if _, err := os.Stat(cfg.LanguageModel); err != nil {
			add("language_model %q not found", cfg.LanguageModel)
		}
	case ModeParallel:
		if cfg.TargetLanguageCorpus == "" {
			add("undefined target_language_corpus")
		} else if _, err := os.Stat(cfg.TargetLanguageCorpus); err != nil {
			add("target_language_corpus %q not found", cfg.TargetLanguageCorpus)
		}
	}

	if cfg.DataFolder == "" {
		add("undefined data_folder")
	} else if err := os.MkdirAll(cfg.DataFolder, 0o755); err != nil {
		add("data_folder %q could not be created: %s", cfg.DataFolder, err)
	}

	return errs
}

// Prefix returns the common filename prefix for intermediate files, matching
// make_prefix: FnameCommonPrefix if set, otherwise the source corpus's
// basename (mono mode) or "source-target" basenames (parallel mode), under DataFolder.
func (cfg *Config) Prefix() string {
	if cfg.FnameCommonPrefix != "" {
		return filepath.Join(cfg.DataFolder, cfg.FnameCommonPrefix)
	}

	trimmedSource := trimExt(filepath.Base(cfg.SourceLanguageCorpus))
	if cfg.Mode != ModeParallel || cfg.TargetLanguageCorpus == "" {
		return filepath.Join(cfg.DataFolder, trimmedSource)
	}

	trimmedTarget := trimExt(filepath.Base(cfg.TargetLanguageCorpus))
	return filepath.Join(cfg.DataFolder, trimmedSource+"-"+trimmedTarget)
}

func trimExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
