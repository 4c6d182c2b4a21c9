package logger

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

// ManagerConfig global logger configuration shared by every module logger
type ManagerConfig struct {
	BaseLogDir      string `yaml:"base_log_dir" mapstructure:"base_log_dir"` // root directory for file output (default logs/)
	Level           string `yaml:"level" mapstructure:"level"`
	AppName         string `yaml:"app_name" mapstructure:"app_name"` // injected into every entry, even when empty
	Encoding        string `yaml:"encoding" mapstructure:"encoding"` // json or console
	ConsoleEncoding string `yaml:"console_encoding" mapstructure:"console_encoding"`
	EnableConsole   bool   `yaml:"enable_console" mapstructure:"enable_console"`
	EnableFile      bool   `yaml:"enable_file" mapstructure:"enable_file"`

	// file naming
	EnableLevelInFilename bool   `yaml:"enable_level_in_filename" mapstructure:"enable_level_in_filename"`
	EnableDateInFilename  bool   `yaml:"enable_date_in_filename" mapstructure:"enable_date_in_filename"`
	DateFormat            string `yaml:"date_format" mapstructure:"date_format"`

	// rotation (lumberjack)
	MaxSize    int  `yaml:"max_size" mapstructure:"max_size"` // MB
	MaxBackups int  `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAge     int  `yaml:"max_age" mapstructure:"max_age"` // days
	Compress   bool `yaml:"compress" mapstructure:"compress"`

	EnableCaller     bool   `yaml:"enable_caller" mapstructure:"enable_caller"`
	EnableStacktrace bool   `yaml:"enable_stacktrace" mapstructure:"enable_stacktrace"`
	StacktraceLevel  string `yaml:"stacktrace_level" mapstructure:"stacktrace_level"`
	StacktraceDepth  int    `yaml:"stacktrace_depth" mapstructure:"stacktrace_depth"` // 0 = default depth

	// Trace ID extraction
	EnableTraceID    bool   `yaml:"enable_trace_id" mapstructure:"enable_trace_id"`
	TraceIDFieldName string `yaml:"trace_id_field_name" mapstructure:"trace_id_field_name"`
}

// DefaultManagerConfig returns the configuration used when no manager was initialized.
// File output is off so that library users do not get a logs/ directory by surprise.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		BaseLogDir:            "logs",
		Level:                 "info",
		Encoding:              "json",
		EnableConsole:         true,
		EnableFile:            false,
		EnableLevelInFilename: true,
		EnableDateInFilename:  true,
		DateFormat:            "2006-01-02",
		MaxSize:               100,
		MaxBackups:            3,
		MaxAge:                28,
		Compress:              true,
		EnableCaller:          true,
		EnableStacktrace:      true,
		StacktraceLevel:       "error",
		StacktraceDepth:       5,
		EnableTraceID:         true,
		TraceIDFieldName:      "trace_id",
	}
}

// ApplyDefaults fills zero-valued fields in place.
// Booleans are left untouched since their zero value is a valid choice.
func (c *ManagerConfig) ApplyDefaults() {
	defaults := DefaultManagerConfig()

	if c.BaseLogDir == "" {
		c.BaseLogDir = defaults.BaseLogDir
	}
	if c.Level == "" {
		c.Level = defaults.Level
	}
	if c.Encoding == "" {
		c.Encoding = defaults.Encoding
	}
	if c.DateFormat == "" {
		c.DateFormat = defaults.DateFormat
	}
	if c.StacktraceLevel == "" {
		c.StacktraceLevel = defaults.StacktraceLevel
	}
	if c.TraceIDFieldName == "" {
		c.TraceIDFieldName = defaults.TraceIDFieldName
	}
	if c.MaxSize == 0 {
		c.MaxSize = defaults.MaxSize
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = defaults.MaxBackups
	}
	if c.MaxAge == 0 {
		c.MaxAge = defaults.MaxAge
	}
}

// Validate checks the manager configuration
func (c ManagerConfig) Validate() error {
	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	if !contains(validLevels, c.Level) {
		return fmt.Errorf("logger: invalid level %q (valid values: %v)", c.Level, validLevels)
	}

	validEncodings := []string{"json", "console"}
	if !contains(validEncodings, c.Encoding) {
		return fmt.Errorf("logger: invalid encoding %q (valid values: %v)", c.Encoding, validEncodings)
	}
	if c.ConsoleEncoding != "" && !contains(validEncodings, c.ConsoleEncoding) {
		return fmt.Errorf("logger: invalid console encoding %q (valid values: %v)", c.ConsoleEncoding, validEncodings)
	}

	if c.MaxSize < 1 || c.MaxSize > 10000 {
		return fmt.Errorf("logger: max_size must be between 1-10000 MB, current: %d", c.MaxSize)
	}
	if c.MaxBackups < 0 || c.MaxBackups > 1000 {
		return fmt.Errorf("logger: max_backups must be between 0-1000, current: %d", c.MaxBackups)
	}
	if c.MaxAge < 0 || c.MaxAge > 3650 {
		return fmt.Errorf("logger: max_age must be between 0-3650 days, current: %d", c.MaxAge)
	}
	if !contains(validLevels, c.StacktraceLevel) {
		return fmt.Errorf("logger: invalid stacktrace level %q (valid values: %v)", c.StacktraceLevel, validLevels)
	}
	if c.EnableDateInFilename && c.DateFormat == "" {
		return fmt.Errorf("logger: date_format is required when enable_date_in_filename is set")
	}

	return nil
}

// ParseLevel parse log level string, unknown values map to info
func ParseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func contains(slice []string, str string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}

// filePath builds the log file path for a module and level bucket.
// Formats:
//   - logs/jwt/jwt.log
//   - logs/jwt/jwt-info.log
//   - logs/jwt/jwt-info-2024-12-19.log
func (c ManagerConfig) filePath(module, level string) string {
	parts := []string{module}

	if c.EnableLevelInFilename {
		parts = append(parts, level)
	}
	if c.EnableDateInFilename {
		parts = append(parts, time.Now().Format(c.DateFormat))
	}

	return filepath.Join(c.BaseLogDir, module, strings.Join(parts, "-")+".log")
}
