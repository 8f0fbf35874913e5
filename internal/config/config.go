package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time parses token lifetimes
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Required values are enforced by must(); optional
// values fall back to sensible defaults so a development instance can start
// with a minimal .env.
type Config struct {
	Env            string        // application environment (e.g. "dev", "prod")
	Port           string        // HTTP port to listen on
	DBUser         string        // database username
	DBPass         string        // database password (optional)
	DBHost         string        // database host address
	DBPort         string        // database port number
	DBName         string        // database name
	JWTSecret      string        // secret used to sign JWTs
	AccessTTL      time.Duration // access token lifetime
	RefreshTTLDays int           // refresh token time-to-live in days
	BcryptRounds   int           // bcrypt cost for password hashing
	TokenCryptKey  string        // key material for sealing federated OAuth tokens
	APIURL         string        // public base URL of this API (encoded into QR codes)
	FrontendURL    string        // public base URL of the SPA (QR redirect target)
	MaxFileSize    int64         // max accepted upload size in bytes
	BucketName     string        // object storage bucket
	AccountID      string        // object storage account (R2-style endpoint)
	AccessKeyID    string        // object storage access key id
	AccessKeySec   string        // object storage access key secret
	PublicAssetURL string        // public base URL under which stored objects are served
	GoogleKey      string        // Google OAuth client id
	GoogleSecret   string        // Google OAuth client secret
	SessionSecret  string        // cookie session secret for the OAuth handshake
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:            getenv("APP_ENV", "dev"),
		Port:           getenv("PORT", "8080"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTL:      parseDur(getenv("JWT_EXPIRES_IN", "15m")),
		RefreshTTLDays: atoiDefault(getenv("REFRESH_TOKEN_TTL_DAYS", "30"), 30),
		BcryptRounds:   atoiDefault(getenv("BCRYPT_ROUNDS", "10"), 10),
		TokenCryptKey:  getenv("TOKEN_CRYPT_KEY", os.Getenv("JWT_SECRET")),
		APIURL:         getenv("API_URL", "http://localhost:8080"),
		FrontendURL:    getenv("FRONTEND_URL", "http://localhost:5173"),
		MaxFileSize:    int64(atoiDefault(getenv("MAX_FILE_SIZE", "5242880"), 5242880)),
		BucketName:     os.Getenv("BUCKET_NAME"),
		AccountID:      os.Getenv("ACCOUNT_ID"),
		AccessKeyID:    os.Getenv("ACCESS_KEY_ID"),
		AccessKeySec:   os.Getenv("ACCESS_KEY_SECRET"),
		PublicAssetURL: getenv("PUBLIC_ASSET_URL", "https://assets.qrbites.example"),
		GoogleKey:      os.Getenv("GOOGLE_KEY"),
		GoogleSecret:   os.Getenv("GOOGLE_SECRET"),
		SessionSecret:  getenv("SESSION_SECRET", os.Getenv("JWT_SECRET")),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// atoiDefault converts s to an int, falling back to def on failure.
func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
