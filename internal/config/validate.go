package config

import "fmt"

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Parser.MaxRecordBytes <= 0 {
		return fmt.Errorf("parser.max_record_bytes must be > 0 (got %d)", c.Parser.MaxRecordBytes)
	}
	if c.Parser.MaxSkippedRecords <= 0 {
		return fmt.Errorf("parser.max_skipped_records must be > 0 (got %d)", c.Parser.MaxSkippedRecords)
	}
	return nil
}
