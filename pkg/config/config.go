package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Variant names for the validation schema and upload policy.
const (
	VariantLenient = "lenient"
	VariantStrict  = "strict"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Admin    AdminConfig
	Storage  StorageConfig
	Uploads  UploadsConfig
	Schema   SchemaConfig
	Sessions SessionsConfig
	Drafts   DraftsConfig
	PDF      PDFConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// Configured reports whether a backend endpoint was supplied at all. The
// submission pipeline short-circuits when it was not, rather than surfacing
// a connection failure.
func (c DatabaseConfig) Configured() bool {
	return c.Host != "" && c.Name != ""
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Configured reports whether a Redis endpoint was supplied. Drafts fall back
// to an in-memory store when it was not.
func (c RedisConfig) Configured() bool {
	return c.Host != ""
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AdminConfig backs the review surface: a single configured reviewer
// account plus JWT signing material.
type AdminConfig struct {
	Enabled      bool
	Email        string
	PasswordHash string
	JWTSecret    string
	TokenExpiry  time.Duration
}

// StorageConfig controls the upload file store and public URL shape.
type StorageConfig struct {
	BaseDir         string
	PublicBaseURL   string
	SignedURLSecret string
	SignedURLTTL    time.Duration
}

// UploadsConfig is the active document policy variant.
type UploadsConfig struct {
	Policy           string
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
	MaxMultiFiles    int
}

// SchemaConfig selects the active validation rule set.
type SchemaConfig struct {
	Variant string
}

// SessionsConfig tunes the form session state machine timers.
type SessionsConfig struct {
	AutosaveDebounce time.Duration
	NoticeTTL        time.Duration
	IdleTTL          time.Duration
}

// DraftsConfig governs the draft snapshot store.
type DraftsConfig struct {
	KeyPrefix string
	TTL       time.Duration
}

// PDFConfig governs background summary generation.
type PDFConfig struct {
	Enabled           bool
	WorkerConcurrency int
	WorkerRetries     int
	CompanyName       string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Admin = AdminConfig{
		Enabled:      v.GetBool("ENABLE_ADMIN"),
		Email:        v.GetString("ADMIN_EMAIL"),
		PasswordHash: v.GetString("ADMIN_PASSWORD_HASH"),
		JWTSecret:    v.GetString("ADMIN_JWT_SECRET"),
		TokenExpiry:  parseDuration(v.GetString("ADMIN_TOKEN_EXPIRY"), 12*time.Hour),
	}

	cfg.Storage = StorageConfig{
		BaseDir:         v.GetString("STORAGE_DIR"),
		PublicBaseURL:   v.GetString("STORAGE_PUBLIC_BASE_URL"),
		SignedURLSecret: v.GetString("STORAGE_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("STORAGE_SIGNED_URL_TTL"), 30*time.Minute),
	}

	cfg.Uploads = uploadsFromVariant(v.GetString("UPLOADS_POLICY"))
	cfg.Schema = SchemaConfig{Variant: schemaVariant(v.GetString("SCHEMA_VARIANT"))}

	cfg.Sessions = SessionsConfig{
		AutosaveDebounce: parseDuration(v.GetString("SESSION_AUTOSAVE_DEBOUNCE"), 2*time.Second),
		NoticeTTL:        parseDuration(v.GetString("SESSION_NOTICE_TTL"), 3*time.Second),
		IdleTTL:          parseDuration(v.GetString("SESSION_IDLE_TTL"), 24*time.Hour),
	}

	cfg.Drafts = DraftsConfig{
		KeyPrefix: v.GetString("DRAFT_KEY_PREFIX"),
		TTL:       parseDuration(v.GetString("DRAFT_TTL"), 7*24*time.Hour),
	}

	cfg.PDF = PDFConfig{
		Enabled:           v.GetBool("ENABLE_PDF_SUMMARY"),
		WorkerConcurrency: v.GetInt("PDF_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("PDF_WORKER_RETRIES"),
		CompanyName:       v.GetString("PDF_COMPANY_NAME"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_ADMIN", false)
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD_HASH", "")
	v.SetDefault("ADMIN_JWT_SECRET", "dev_admin_secret")
	v.SetDefault("ADMIN_TOKEN_EXPIRY", "12h")

	v.SetDefault("STORAGE_DIR", "./uploads")
	v.SetDefault("STORAGE_PUBLIC_BASE_URL", "")
	v.SetDefault("STORAGE_SIGNED_URL_SECRET", "dev_storage_secret")
	v.SetDefault("STORAGE_SIGNED_URL_TTL", "30m")

	v.SetDefault("UPLOADS_POLICY", VariantLenient)
	v.SetDefault("SCHEMA_VARIANT", VariantLenient)

	v.SetDefault("SESSION_AUTOSAVE_DEBOUNCE", "2s")
	v.SetDefault("SESSION_NOTICE_TTL", "3s")
	v.SetDefault("SESSION_IDLE_TTL", "24h")

	v.SetDefault("DRAFT_KEY_PREFIX", "onboarding:draft:")
	v.SetDefault("DRAFT_TTL", "168h")

	v.SetDefault("ENABLE_PDF_SUMMARY", true)
	v.SetDefault("PDF_WORKER_CONCURRENCY", 1)
	v.SetDefault("PDF_WORKER_RETRIES", 1)
	v.SetDefault("PDF_COMPANY_NAME", "ABANS Group")
}

// uploadsFromVariant resolves the two observed document policies. The looser
// policy is the deployed default; the JPEG-only policy is opt-in.
func uploadsFromVariant(raw string) UploadsConfig {
	if strings.EqualFold(raw, VariantStrict) {
		return UploadsConfig{
			Policy:           VariantStrict,
			MaxFileSizeBytes: 2 * 1024 * 1024,
			AllowedMIMEs:     []string{"image/jpeg"},
			MaxMultiFiles:    3,
		}
	}
	return UploadsConfig{
		Policy:           VariantLenient,
		MaxFileSizeBytes: 5 * 1024 * 1024,
		AllowedMIMEs:     []string{"application/pdf", "image/jpeg", "image/png"},
		MaxMultiFiles:    6,
	}
}

func schemaVariant(raw string) string {
	if strings.EqualFold(raw, VariantStrict) {
		return VariantStrict
	}
	return VariantLenient
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
