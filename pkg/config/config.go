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

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	BoardName string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Admin      AdminConfig
	Mail       MailConfig
	Drive      DriveConfig
	Backup     BackupConfig
	Uploads    UploadsConfig
	HallTicket HallTicketConfig
	Dashboard  DashboardConfig
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

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AdminConfig carries the configured super-admin credentials. The login path
// compares these values directly; the seeded database row only backs the OTP
// reset flow.
type AdminConfig struct {
	Username string
	Password string
	Email    string
	OTPTTL   time.Duration
}

// MailConfig configures the SendGrid transport.
type MailConfig struct {
	SendGridKey string
	FromName    string
	FromEmail   string
}

// DriveConfig locates the OAuth client credentials and the persisted token
// used by the backup uploader.
type DriveConfig struct {
	CredentialsFile string
	TokenFile       string
	FolderID        string
}

// BackupConfig tunes the marks backup job.
type BackupConfig struct {
	StorageDir        string
	WorkerConcurrency int
	WorkerRetries     int
}

// UploadsConfig controls centre logo storage.
type UploadsConfig struct {
	Dir              string
	MaxFileSizeBytes int64
}

// HallTicketConfig controls the approval dwell time.
type HallTicketConfig struct {
	ApprovalDelay time.Duration
}

// DashboardConfig governs grade summary caching.
type DashboardConfig struct {
	CacheTTL time.Duration
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
	cfg.BoardName = v.GetString("BOARD_NAME")

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

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Admin = AdminConfig{
		Username: v.GetString("ADMIN_USERNAME"),
		Password: v.GetString("ADMIN_PASSWORD"),
		Email:    v.GetString("ADMIN_EMAIL"),
		OTPTTL:   parseDuration(v.GetString("ADMIN_OTP_TTL"), 10*time.Minute),
	}

	cfg.Mail = MailConfig{
		SendGridKey: v.GetString("SENDGRID_API_KEY"),
		FromName:    v.GetString("MAIL_FROM_NAME"),
		FromEmail:   v.GetString("MAIL_FROM_EMAIL"),
	}

	cfg.Drive = DriveConfig{
		CredentialsFile: v.GetString("DRIVE_CREDENTIALS_FILE"),
		TokenFile:       v.GetString("DRIVE_TOKEN_FILE"),
		FolderID:        v.GetString("DRIVE_FOLDER_ID"),
	}

	cfg.Backup = BackupConfig{
		StorageDir:        v.GetString("BACKUP_STORAGE_DIR"),
		WorkerConcurrency: v.GetInt("BACKUP_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("BACKUP_WORKER_RETRIES"),
	}

	maxLogoSize := v.GetInt64("UPLOADS_MAX_FILE_SIZE")
	if maxLogoSize <= 0 {
		maxLogoSize = 2 * 1024 * 1024
	}
	cfg.Uploads = UploadsConfig{
		Dir:              v.GetString("UPLOADS_DIR"),
		MaxFileSizeBytes: maxLogoSize,
	}

	cfg.HallTicket = HallTicketConfig{
		ApprovalDelay: parseDuration(v.GetString("HALLTICKET_APPROVAL_DELAY"), 12*time.Hour),
	}

	cfg.Dashboard = DashboardConfig{
		CacheTTL: parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("BOARD_NAME", "State Board of Technical Examinations")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "centre_portal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD", "admin")
	v.SetDefault("ADMIN_EMAIL", "admin@localhost")
	v.SetDefault("ADMIN_OTP_TTL", "10m")

	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("MAIL_FROM_NAME", "Exam Centre Portal")
	v.SetDefault("MAIL_FROM_EMAIL", "noreply@localhost")

	v.SetDefault("DRIVE_CREDENTIALS_FILE", "./credentials.json")
	v.SetDefault("DRIVE_TOKEN_FILE", "./token.json")
	v.SetDefault("DRIVE_FOLDER_ID", "")

	v.SetDefault("BACKUP_STORAGE_DIR", "./backups")
	v.SetDefault("BACKUP_WORKER_CONCURRENCY", 1)
	v.SetDefault("BACKUP_WORKER_RETRIES", 3)

	v.SetDefault("UPLOADS_DIR", "./uploads")
	v.SetDefault("UPLOADS_MAX_FILE_SIZE", 2*1024*1024)

	v.SetDefault("HALLTICKET_APPROVAL_DELAY", "12h")
	v.SetDefault("DASHBOARD_CACHE_TTL", "5m")
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
