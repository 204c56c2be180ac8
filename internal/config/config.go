package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Host         string
	Port         int
	AllowOrigins []string
	LogLevel     string
	LogFile      string

	DataDir   string
	CacheFile string

	// Remote services.
	ProductAPIURL  string
	ImpactAPIURL   string
	RemoteTimeout  time.Duration
	RemoteLanguage string
}

func Load() Config {
	port, _ := strconv.Atoi(getenv("PORT", "8083"))
	timeoutSec, _ := strconv.Atoi(getenv("REMOTE_TIMEOUT_SEC", "5"))
	origins := strings.Split(getenv("ALLOW_ORIGINS", "*"), ",")
	return Config{
		Host:           getenv("HOST", "127.0.0.1"),
		Port:           port,
		AllowOrigins:   origins,
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogFile:        getenv("LOG_FILE", "logs/carbon-index-service.log"),
		DataDir:        getenv("DATA_DIR", "data"),
		CacheFile:      getenv("CACHE_FILE", "open_food_facts_cache.json"),
		ProductAPIURL:  getenv("PRODUCT_API_URL", "https://world.openfoodfacts.org/cgi/search.pl"),
		ImpactAPIURL:   getenv("IMPACT_API_URL", "https://impactco2.fr/api/v1"),
		RemoteTimeout:  time.Duration(timeoutSec) * time.Second,
		RemoteLanguage: getenv("REMOTE_LANGUAGE", "fr"),
	}
}

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
