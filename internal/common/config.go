package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Intake IntakeConfig
	Raster RasterConfig
	OCR    OCRConfig
	Render RenderConfig
	Queue  QueueConfig
	Watch  WatchConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr string
}

// StoreConfig holds job-store configuration
type StoreConfig struct {
	URI         string
	Database    string
	JobsTTL     time.Duration
	DialTimeout time.Duration
}

// IntakeConfig holds upload validation configuration
type IntakeConfig struct {
	DataDir      string
	MaxSizeBytes int64
	SkipMagic    bool
}

// RasterConfig holds PDF rasterization configuration
type RasterConfig struct {
	Pdftoppm string // binary name or absolute path; if empty -> "pdftoppm"
	DPI      int
	Format   string // "jpeg" or "png"
	MaxPages int    // 0 = no limit
}

// OCRConfig holds OCR engine configuration
type OCRConfig struct {
	Language      string
	TessdataDir   string
	MinConfidence float64
}

// RenderConfig holds document rendering configuration
type RenderConfig struct {
	Title          string
	FontName       string
	FontSizePt     int
	MathFontName   string
	MathFontSizePt int
}

// QueueConfig holds worker pool configuration
type QueueConfig struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
}

// WatchConfig holds drop-directory ingestion configuration
type WatchConfig struct {
	Dir string // empty disables the watcher
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		},
		Store: StoreConfig{
			URI:         getEnv("MONGO_URI", ""),
			Database:    getEnv("MONGO_DB", "document_ocr-0"),
			JobsTTL:     getEnvAsDuration("JOB_TTL", 24*time.Hour),
			DialTimeout: getEnvAsDuration("MONGO_DIAL_TIMEOUT", 3*time.Second),
		},
		Intake: IntakeConfig{
			DataDir:      getEnv("DATA_DIR", "./data"),
			MaxSizeBytes: getEnvAsInt64("MAX_UPLOAD_BYTES", 25*1024*1024),
			SkipMagic:    getEnvAsBool("SKIP_PDF_MAGIC", false),
		},
		Raster: RasterConfig{
			Pdftoppm: getEnv("PDFTOPPM", "pdftoppm"),
			DPI:      getEnvAsInt("RASTER_DPI", 250),
			Format:   getEnv("RASTER_FORMAT", "jpeg"),
			MaxPages: getEnvAsInt("RASTER_MAX_PAGES", 0),
		},
		OCR: OCRConfig{
			Language:      getEnv("OCR_LANG", "eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			MinConfidence: getEnvAsFloat64("OCR_MIN_CONFIDENCE", 0.30),
		},
		Render: RenderConfig{
			Title:          getEnv("RENDER_TITLE", "OCR Output"),
			FontName:       getEnv("RENDER_FONT", "Times New Roman"),
			FontSizePt:     getEnvAsInt("RENDER_FONT_SIZE", 12),
			MathFontName:   getEnv("RENDER_MATH_FONT", "Cambria Math"),
			MathFontSizePt: getEnvAsInt("RENDER_MATH_FONT_SIZE", 12),
		},
		Queue: QueueConfig{
			Workers:    getEnvAsInt("PIPELINE_WORKERS", 4),
			QueueSize:  getEnvAsInt("PIPELINE_QUEUE_SIZE", 256),
			JobTimeout: getEnvAsDuration("PIPELINE_JOB_TIMEOUT", 10*time.Minute),
		},
		Watch: WatchConfig{
			Dir: getEnv("WATCH_DIR", ""),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Store.URI == "" {
		return NewAppError("CONFIG_ERROR", "MONGO_URI is required", nil)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", nil)
	}
	if c.Intake.MaxSizeBytes <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_UPLOAD_BYTES must be positive", nil)
	}
	if c.Raster.DPI <= 0 {
		return NewAppError("CONFIG_ERROR", "RASTER_DPI must be positive", nil)
	}
	return nil
}
