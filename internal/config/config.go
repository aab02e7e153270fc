package config

import "github.com/GoogleCloudPlatform/automl-translation-tools/internal/corpus"

// Config is the root tool configuration.
type Config struct {
	Parser ParserConfig `yaml:"parser"`
	Log    LogConfig    `yaml:"log"`
}

// ParserConfig holds parser memory and error-tolerance bounds.
type ParserConfig struct {
	// MaxRecordBytes caps one logical record (one line, one <tu>).
	MaxRecordBytes int `yaml:"max_record_bytes" env:"PARSER_MAX_RECORD_BYTES" env-default:"1048576"`
	// MaxSkippedRecords caps tolerated invalid records before parsing fails.
	MaxSkippedRecords int `yaml:"max_skipped_records" env:"PARSER_MAX_SKIPPED_RECORDS" env-default:"1024"`
	// SkipInvalid tolerates translation units missing a source or target
	// sentence instead of failing the file. Off by default, matching the
	// strict behavior of the hosted pipeline.
	SkipInvalid bool `yaml:"skip_invalid" env:"PARSER_SKIP_INVALID" env-default:"false"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// Limits converts the parser section into corpus.Limits.
func (c ParserConfig) Limits() corpus.Limits {
	return corpus.Limits{
		MaxRecordBytes:    c.MaxRecordBytes,
		MaxSkippedRecords: c.MaxSkippedRecords,
		SkipInvalid:       c.SkipInvalid,
	}
}
