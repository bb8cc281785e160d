package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"ledgerdesk/internal/logger"
	"ledgerdesk/internal/model"

	"github.com/shopspring/decimal"
)

// Storage drivers
const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Stock policies
const (
	StockPolicyClamp  = "clamp"
	StockPolicyReject = "reject"
)

type Config struct {
	// HTTP
	Port        string
	GinMode     string
	CORSOrigins []string

	// Storage
	StorageDriver string
	DataDir       string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string

	// Ledger
	TaxFormula        string
	TaxEWRate         decimal.Decimal
	TaxVATRate        decimal.Decimal
	StockPolicy       string
	SKULength         int
	SKUMaxAttempts    int
	InvoiceLineCount  int
	LowStockThreshold int
	SnowflakeNode     int64

	// Auth
	APITokenSecret string

	// Logging
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads the configuration from the environment. Call godotenv.Load first
// when a .env file should be honoured.
func Load() (*Config, error) {
	c := &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")),
		StorageDriver:  strings.ToLower(getEnv("STORAGE_DRIVER", StorageFile)),
		DataDir:        getEnv("DATA_DIR", "./data"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", "postgres"),
		DBName:         getEnv("DB_NAME", "postgres"),
		DBSSLMode:      getEnv("DB_SSLMODE", "disable"),
		TaxFormula:     getEnv("TAX_FORMULA", model.TaxFormulaWithholdingThenVAT),
		StockPolicy:    strings.ToLower(getEnv("STOCK_POLICY", StockPolicyClamp)),
		APITokenSecret: os.Getenv("API_TOKEN_SECRET"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:  getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:      getEnv("LOG_OUTPUT", "stdout"),
	}

	var err error
	if c.TaxEWRate, err = getDecimal("TAX_EW_RATE", "0.12"); err != nil {
		return nil, err
	}
	if c.TaxVATRate, err = getDecimal("TAX_VAT_RATE", "0.12"); err != nil {
		return nil, err
	}
	if c.SKULength, err = getInt("SKU_LENGTH", 6); err != nil {
		return nil, err
	}
	if c.SKUMaxAttempts, err = getInt("SKU_MAX_ATTEMPTS", 10000); err != nil {
		return nil, err
	}
	if c.InvoiceLineCount, err = getInt("INVOICE_LINE_COUNT", 15); err != nil {
		return nil, err
	}
	if c.LowStockThreshold, err = getInt("LOW_STOCK_THRESHOLD", 5); err != nil {
		return nil, err
	}
	node, err := getInt("SNOWFLAKE_NODE", 1)
	if err != nil {
		return nil, err
	}
	c.SnowflakeNode = int64(node)

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return c, nil
}

func (c *Config) validate() error {
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("GIN_MODE must be debug, release or test (got %q)", c.GinMode)
	}
	switch c.StorageDriver {
	case StorageFile, StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be one of file, postgres, memory (got %q)", c.StorageDriver)
	}
	switch c.StockPolicy {
	case StockPolicyClamp, StockPolicyReject:
	default:
		return fmt.Errorf("STOCK_POLICY must be clamp or reject (got %q)", c.StockPolicy)
	}
	switch c.TaxFormula {
	case model.TaxFormulaWithholdingThenVAT, model.TaxFormulaEmbeddedVAT:
	default:
		return fmt.Errorf("TAX_FORMULA %q is not a known formula", c.TaxFormula)
	}
	if c.TaxEWRate.IsNegative() || c.TaxVATRate.IsNegative() {
		return fmt.Errorf("tax rates must not be negative")
	}
	if c.SKULength <= 0 {
		return fmt.Errorf("SKU_LENGTH must be positive")
	}
	if c.SKUMaxAttempts <= 0 {
		return fmt.Errorf("SKU_MAX_ATTEMPTS must be positive")
	}
	if c.InvoiceLineCount <= 0 {
		return fmt.Errorf("INVOICE_LINE_COUNT must be positive")
	}
	if c.LowStockThreshold < 0 {
		return fmt.Errorf("LOW_STOCK_THRESHOLD must not be negative")
	}
	if c.SnowflakeNode < 0 || c.SnowflakeNode > 1023 {
		return fmt.Errorf("SNOWFLAKE_NODE must be between 0 and 1023")
	}
	if c.StorageDriver == StorageFile && c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required for the file storage driver")
	}
	return nil
}

// DSN builds the postgres connection string
func (c *Config) DSN() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

// TaxRates returns the configured tax formula and rates
func (c *Config) TaxRates() model.TaxRates {
	return model.TaxRates{
		Formula:         c.TaxFormula,
		WithholdingRate: c.TaxEWRate,
		VATRate:         c.TaxVATRate,
	}
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return v, nil
}

func getDecimal(key, defaultValue string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(getEnv(key, defaultValue))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a decimal: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
