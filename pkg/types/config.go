package types

// Conversion paths. The converter always runs against the demo data file
// served by the AuditVerse front end.
const (
	DefaultDataFile   = "public/data/comprehensiveSampleData.json"
	DefaultBackupFile = DefaultDataFile + ".backup"
)

// ConvertConfig holds settings for the conversion stage.
type ConvertConfig struct {
	// DataFile is read as old format and overwritten with the new format.
	DataFile string `json:"data_file" yaml:"data_file"`

	// BackupFile receives the unmodified input document.
	BackupFile string `json:"backup_file" yaml:"backup_file"`
}

// DefaultConvertConfig returns the fixed conversion paths.
func DefaultConvertConfig() ConvertConfig {
	return ConvertConfig{
		DataFile:   DefaultDataFile,
		BackupFile: DefaultBackupFile,
	}
}

// LogFormat selects the diagnostic log encoder.
type LogFormat string

const (
	LogConsole LogFormat = "console"
	LogJSON    LogFormat = "json"
)

// LogConfig holds diagnostic logging settings.
type LogConfig struct {
	// Level is a zap level name: debug, info, warn, error (default warn).
	Level string `json:"level" yaml:"level"`

	// Format selects console or json output (default console).
	Format LogFormat `json:"format" yaml:"format"`
}

// TimelineStoreConfig holds settings for the SQLite timeline index.
type TimelineStoreConfig struct {
	// IndexDir holds timeline.db and export files.
	IndexDir string `json:"index_dir" yaml:"index_dir"`

	// MaxResults is the default maximum number of query results (default 50).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// AppConfig groups every configurable section.
type AppConfig struct {
	Log      LogConfig           `json:"log" yaml:"log"`
	Timeline TimelineStoreConfig `json:"timeline" yaml:"timeline"`
}
