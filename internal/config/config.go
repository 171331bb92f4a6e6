// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Mail     MailConfig
	Match    MatchConfig
	Cache    CacheConfig
	Archive  ArchiveConfig
	Schedule ScheduleConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// MailConfig describes the mailbox the report attachments arrive in.
// AuthPath points at a directory holding Gmail OAuth credentials.json and
// token.json; when it is empty plain IMAP with User/Password/Server is used.
type MailConfig struct {
	User     string
	Password string
	Server   string
	AuthPath string

	SalesSubject      string
	StockSubject      string
	ProductionSubject string
	PurchasesSubject  string

	SearchWindowDays int
}

// MatchConfig carries reference-matching service credentials and the set of
// boilerplate legal-head names that get replaced by the client display name.
type MatchConfig struct {
	DadataToken      string
	DadataSecret     string
	PlaceholderHeads []string
}

type CacheConfig struct {
	Enabled          bool
	RedisURL         string
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RedisDB          int
	ReportTTLSeconds int
}

// ArchiveConfig configures the S3-compatible store the raw attachments are
// copied to after a successful run. Disabled unless an endpoint is set.
type ArchiveConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// ScheduleConfig holds cron specs per ingestion source; an empty spec
// disables the scheduled run for that source.
type ScheduleConfig struct {
	Sales      string
	Stock      string
	Production string
	Purchases  string
}

// MissingCredentialsError is returned when required mailbox settings are
// absent. It is raised before any network call is made.
type MissingCredentialsError struct {
	Missing []string
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("missing required settings: %s", strings.Join(e.Missing, ", "))
}

// Validate checks that the mailbox can be reached with the configured
// settings. Gmail OAuth needs only the auth directory; IMAP needs the full
// user/password/server triple.
func (m MailConfig) Validate() error {
	if m.AuthPath != "" {
		return nil
	}
	var missing []string
	if m.User == "" {
		missing = append(missing, "EMAIL_USER")
	}
	if m.Password == "" {
		missing = append(missing, "EMAIL_PASSWORD")
	}
	if m.Server == "" {
		missing = append(missing, "EMAIL_SERVER")
	}
	if len(missing) > 0 {
		return &MissingCredentialsError{Missing: missing}
	}
	return nil
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 15)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "stn_reports")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("EMAIL_SERVER", "imap.gmail.com")
		viper.SetDefault("MAIL_AUTH_PATH", "")
		viper.SetDefault("SUBJECT_SALES", "продажи стн")
		viper.SetDefault("SUBJECT_STOCK", "остатки по складам")
		viper.SetDefault("SUBJECT_PRODUCTION", "исполнение производства")
		viper.SetDefault("SUBJECT_PURCHASES", "закупк")
		viper.SetDefault("MAIL_SEARCH_WINDOW_DAYS", 14)
		viper.SetDefault("MATCH_PLACEHOLDER_HEADS", []string{
			"Физическое лицо",
			"Частное лицо",
			"Розничный покупатель",
		})
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_REPORT_TTL_SECONDS", 60)
		viper.SetDefault("ARCHIVE_ENDPOINT", "")
		viper.SetDefault("ARCHIVE_BUCKET", "stn-reports")
		viper.SetDefault("ARCHIVE_USE_SSL", true)
		viper.SetDefault("CRON_SALES", "")
		viper.SetDefault("CRON_STOCK", "")
		viper.SetDefault("CRON_PRODUCTION", "")
		viper.SetDefault("CRON_PURCHASES", "")

		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Mail: MailConfig{
				User:              viper.GetString("EMAIL_USER"),
				Password:          viper.GetString("EMAIL_PASSWORD"),
				Server:            viper.GetString("EMAIL_SERVER"),
				AuthPath:          viper.GetString("MAIL_AUTH_PATH"),
				SalesSubject:      viper.GetString("SUBJECT_SALES"),
				StockSubject:      viper.GetString("SUBJECT_STOCK"),
				ProductionSubject: viper.GetString("SUBJECT_PRODUCTION"),
				PurchasesSubject:  viper.GetString("SUBJECT_PURCHASES"),
				SearchWindowDays:  viper.GetInt("MAIL_SEARCH_WINDOW_DAYS"),
			},
			Match: MatchConfig{
				DadataToken:      viper.GetString("DADATA_TOKEN"),
				DadataSecret:     viper.GetString("DADATA_SECRET"),
				PlaceholderHeads: viper.GetStringSlice("MATCH_PLACEHOLDER_HEADS"),
			},
			Cache: CacheConfig{
				Enabled:          viper.GetBool("CACHE_ENABLED"),
				RedisURL:         viper.GetString("REDIS_URL"),
				RedisHost:        viper.GetString("REDIS_HOST"),
				RedisPort:        viper.GetString("REDIS_PORT"),
				RedisPassword:    viper.GetString("REDIS_PASSWORD"),
				RedisDB:          viper.GetInt("REDIS_DB"),
				ReportTTLSeconds: viper.GetInt("CACHE_REPORT_TTL_SECONDS"),
			},
			Archive: ArchiveConfig{
				Endpoint:  viper.GetString("ARCHIVE_ENDPOINT"),
				AccessKey: viper.GetString("ARCHIVE_ACCESS_KEY"),
				SecretKey: viper.GetString("ARCHIVE_SECRET_KEY"),
				Bucket:    viper.GetString("ARCHIVE_BUCKET"),
				UseSSL:    viper.GetBool("ARCHIVE_USE_SSL"),
			},
			Schedule: ScheduleConfig{
				Sales:      viper.GetString("CRON_SALES"),
				Stock:      viper.GetString("CRON_STOCK"),
				Production: viper.GetString("CRON_PRODUCTION"),
				Purchases:  viper.GetString("CRON_PURCHASES"),
			},
		}
	})

	return instance
}

// DSN renders the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}
