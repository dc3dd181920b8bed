// Package importer discovers data providers, drives their build and write
// phases and produces one coherent SQL output stream.
package importer

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/syssam/seedql/dialect"
	"github.com/syssam/seedql/generator"
)

// Environment variable names of the recognized settings.
const (
	EnvDataFolder            = "SEEDQL_DATA_FOLDER"
	EnvOutputFile            = "SEEDQL_OUTPUT_FILE"
	EnvOutputEncoding        = "SEEDQL_OUTPUT_ENCODING"
	EnvPrefix                = "SEEDQL_PREFIX"
	EnvPostfix               = "SEEDQL_POSTFIX"
	EnvProviderPackages      = "SEEDQL_PROVIDER_PACKAGES"
	EnvDialect               = "SEEDQL_DIALECT"
	EnvDatabaseURL           = "SEEDQL_DATABASE_URL"
	EnvMaxUniqueProperties   = "SEEDQL_MAX_UNIQUE_PROPERTIES"
	EnvUniquePropertyQuality = "SEEDQL_UNIQUE_PROPERTY_QUALITY"
	EnvRelativeIDs           = "SEEDQL_WRITE_RELATIVE_IDS"
	EnvPreferSequenceCurrval = "SEEDQL_PREFER_SEQUENCE_CURRENT_VALUE"
)

// Settings configures one import run.
type Settings struct {
	// DataFolder is the base path handed to providers reading input
	// files.
	DataFolder string `yaml:"data-folder"`
	// OutputFile is the destination SQL path.
	OutputFile string `yaml:"output-file"`
	// OutputEncoding is the character set of the output file.
	OutputEncoding string `yaml:"output-encoding"`
	// Prefix and Postfix are written around the generated content:
	// either a list of .sql file paths or a literal SQL fragment.
	Prefix  string `yaml:"prefix"`
	Postfix string `yaml:"postfix"`
	// ProviderPackages restricts the registered provider factories to
	// the ones whose name starts with one of the given prefixes. Empty
	// means all.
	ProviderPackages []string `yaml:"provider-packages"`
	// Dialect names the SQL dialect.
	Dialect string `yaml:"dialect"`
	// DatabaseURL switches output to a live connection when set.
	DatabaseURL string `yaml:"database-url"`
	// MaxUniqueProperties is the maximum column count of a unique
	// constraint considered as a unique key alternate.
	MaxUniqueProperties int `yaml:"max-unique-properties"`
	// UniquePropertyQuality is the threshold rank for unique key
	// alternates: onlyRequiredPrimitives, onlyRequired, onlyPrimitives
	// or allowsNulls.
	UniquePropertyQuality string `yaml:"unique-property-quality"`
	// WriteRelativeIDs prefers currval and sub-select references over
	// literal ids.
	WriteRelativeIDs bool `yaml:"write-relative-ids"`
	// PreferSequenceCurrentValue enables the currval shortcut.
	PreferSequenceCurrentValue bool `yaml:"prefer-sequence-current-value"`
}

// DefaultSettings returns the settings of a plain run.
func DefaultSettings() *Settings {
	return &Settings{
		DataFolder:                 ".",
		OutputFile:                 "data.sql",
		OutputEncoding:             "UTF-8",
		Dialect:                    dialect.Postgres,
		MaxUniqueProperties:        1,
		PreferSequenceCurrentValue: true,
	}
}

// LoadSettings reads settings from a YAML file on top of the defaults.
func LoadSettings(path string) (*Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("importer: read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("importer: parse settings %s: %w", path, err)
	}
	return s, nil
}

// FromEnv overrides the settings from the process environment.
func (s *Settings) FromEnv() {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setString(EnvDataFolder, &s.DataFolder)
	setString(EnvOutputFile, &s.OutputFile)
	setString(EnvOutputEncoding, &s.OutputEncoding)
	setString(EnvPrefix, &s.Prefix)
	setString(EnvPostfix, &s.Postfix)
	setString(EnvDialect, &s.Dialect)
	setString(EnvDatabaseURL, &s.DatabaseURL)
	setString(EnvUniquePropertyQuality, &s.UniquePropertyQuality)
	if v, ok := os.LookupEnv(EnvProviderPackages); ok {
		s.ProviderPackages = splitList(v)
	}
	if v, ok := os.LookupEnv(EnvMaxUniqueProperties); ok {
		if n, err := strconv.Atoi(v); err == nil {
			s.MaxUniqueProperties = n
		}
	}
	if v, ok := os.LookupEnv(EnvRelativeIDs); ok {
		s.WriteRelativeIDs = parseBool(v)
	}
	if v, ok := os.LookupEnv(EnvPreferSequenceCurrval); ok {
		s.PreferSequenceCurrentValue = parseBool(v)
	}
}

// GeneratorConfig converts the settings into the core configuration.
func (s *Settings) GeneratorConfig() (generator.Config, error) {
	quality, err := generator.ParseUniquePropertyQuality(s.UniquePropertyQuality)
	if err != nil {
		return generator.Config{}, err
	}
	return generator.Config{
		MaxUniqueProperties:        s.MaxUniqueProperties,
		UniquePropertyQuality:      quality,
		WriteRelativeIDs:           s.WriteRelativeIDs,
		PreferSequenceCurrentValue: s.PreferSequenceCurrentValue,
	}, nil
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func splitList(v string) []string {
	parts := strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || r == ';' || r == ':' || r == ' ' || r == '\n'
	})
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
