// internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/anugrahsy/monolog-food-orders-app/internal/logger"
)

// Plaza Senayan, where orders are prepared.
const (
	defaultShopLat = -6.2260056
	defaultShopLng = 106.7991222
)

var (
	baseDir       string
	dataDirectory string
	logsDirectory string
	databasePath  string
	catalogPath   string
	qrisDirectory string

	AllowedOrigin string
)

// Storefront holds the business settings of the shop.
type Storefront struct {
	ShopLat           float64
	ShopLng           float64
	WhatsAppRecipient string
	PromoCode         string
	SessionTTL        time.Duration
	RateLimitRPS      float64
	RateLimitBurst    int
}

//
// --- Utility Helpers ---
//

// GetEnvBasedSetting reads BASE_DEV or BASE_PROD depending on ENVIRONMENT.
func GetEnvBasedSetting(base string) string {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}
	return os.Getenv(fmt.Sprintf("%s_%s", base, strings.ToUpper(env)))
}

func LogCurrentEnvironment() {
	env := os.Getenv("ENVIRONMENT")
	if env == "" || env == "dev" {
		logger.LogInfo("Running in development environment")
	} else {
		logger.LogInfo("Running in production environment")
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logger.LogWarn("Invalid %s=%q, using default %v", key, v, def)
		return def
	}
	return f
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		logger.LogWarn("Invalid %s=%q, using default %d", key, v, def)
		return def
	}
	return i
}

//
// --- Loaders ---
//

// LoadEnv reads the .env file if one exists.
func LoadEnv() {
	wd, err := os.Getwd()
	if err != nil {
		log.Printf("Could not determine working directory: %v", err)
	}

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("No .env file found in %s. Using system environment variables.", wd)
	} else {
		log.Printf("Loaded environment variables from .env file in %s", wd)
	}
}

// LoggerConfig returns a logger.Config populated from the environment.
func LoggerConfig() logger.Config {
	logDir := GetEnvBasedSetting("LOGS_DIRECTORY")
	if logDir == "" {
		logDir = "./logs"
	}

	logFormat := GetEnvBasedSetting("LOG_FILE_FORMAT")
	if logFormat == "" {
		logFormat = "storefront_%s.log"
	}

	return logger.Config{
		LogsDirectory: logDir,
		LogFileFormat: logFormat,
		TimeZone:      envOrDefault("TIME_ZONE", "Asia/Jakarta"),
	}
}

// ConfigurePaths resolves data, catalog and asset locations.
func ConfigurePaths() {
	wd, err := os.Getwd()
	if err != nil {
		logger.LogFatal("Failed to get working directory: %v", err)
	}
	baseDir = wd

	dataDirectory = GetEnvBasedSetting("DATA_DIRECTORY")
	if dataDirectory == "" {
		dataDirectory = filepath.Join(baseDir, "data")
	}

	logsDirectory = GetEnvBasedSetting("LOGS_DIRECTORY")
	if logsDirectory == "" {
		logsDirectory = filepath.Join(baseDir, "logs")
	}

	databasePath = GetEnvBasedSetting("DATABASE_PATH")
	if databasePath == "" {
		databasePath = filepath.Join(dataDirectory, "storefront.db")
	}

	catalogPath = GetEnvBasedSetting("CATALOG_PATH")
	if catalogPath == "" {
		catalogPath = filepath.Join(dataDirectory, "produk.json")
	}

	qrisDirectory = GetEnvBasedSetting("QRIS_DIRECTORY")
	if qrisDirectory == "" {
		qrisDirectory = filepath.Join(baseDir, "static", "qris")
	}
}

// LoadCORSConfig loads the allowed browser origin.
func LoadCORSConfig() {
	AllowedOrigin = GetEnvBasedSetting("ALLOWED_ORIGIN")
	if AllowedOrigin == "" {
		AllowedOrigin = "*"
		logger.LogWarn("ALLOWED_ORIGIN not set, using '*'")
	} else {
		logger.LogInfo("Allowed Origin: %s", AllowedOrigin)
	}
}

// LoadStorefrontConfig reads shop location, handoff recipient, promo and limits.
func LoadStorefrontConfig() (Storefront, error) {
	cfg := Storefront{
		ShopLat:           envFloat("SHOP_LAT", defaultShopLat),
		ShopLng:           envFloat("SHOP_LNG", defaultShopLng),
		WhatsAppRecipient: envOrDefault("WHATSAPP_RECIPIENT", "6281234567890"),
		PromoCode:         envOrDefault("PROMO_CODE", "MONOLOG"),
		SessionTTL:        time.Duration(envInt("SESSION_TTL_MINUTES", 120)) * time.Minute,
		RateLimitRPS:      envFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:    envInt("RATE_LIMIT_BURST", 20),
	}

	if cfg.ShopLat < -90 || cfg.ShopLat > 90 || cfg.ShopLng < -180 || cfg.ShopLng > 180 {
		return cfg, fmt.Errorf("shop coordinate out of range: %v,%v", cfg.ShopLat, cfg.ShopLng)
	}
	for _, r := range cfg.WhatsAppRecipient {
		if r < '0' || r > '9' {
			return cfg, fmt.Errorf("WHATSAPP_RECIPIENT must be digits only, got %q", cfg.WhatsAppRecipient)
		}
	}
	if strings.TrimSpace(cfg.PromoCode) == "" {
		return cfg, fmt.Errorf("PROMO_CODE must not be blank")
	}

	logger.LogInfo("Storefront configured: shop=(%.7f,%.7f) recipient=%s", cfg.ShopLat, cfg.ShopLng, cfg.WhatsAppRecipient)
	return cfg, nil
}

//
// --- Getters (exported) ---
//

func DataDirectory() string {
	return dataDirectory
}

func LogsDirectory() string {
	return logsDirectory
}

func DatabasePath() string {
	return databasePath
}

func CatalogPath() string {
	return catalogPath
}

func QRISDirectory() string {
	return qrisDirectory
}
