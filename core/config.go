package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kat-co/vala"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host              string
		Port              int
		DebugHost         string
		ShutdownTimeout   time.Duration
		SessionTokenDelta time.Duration
		ResetTokenDelta   time.Duration
	}

	OTPConfig struct {
		Length         int
		AdminTTL       time.Duration
		StudentTTL     time.Duration
		RequestWindow  time.Duration
		MaxRequests    int
		BlockDelta     time.Duration
		ReaperInterval time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          int
		DisableTLS    bool
	}

	UploadConfig struct {
		CloudName string
		APIKey    string
		APISecret string
		BaseURL   string
	}

	Config struct {
		Env      string
		Debug    bool
		TestMode bool
		Build    string

		AppName          string
		SecretKey        []byte
		ResetSecretKey   []byte
		FrontendBaseURL  string
		DefaultFromEmail mail.Address

		SendgridAPIKey     string
		RollbarToken       string
		GoogleTokenInfoURL string

		Server   ServerConfig
		OTP      OTPConfig
		Database DatabaseConfig
		Upload   UploadConfig
	}
)

func (c DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// NewConfig loads configuration from the environment (and an optional
// config/.env.<env> file) with development defaults.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "Institute")
	v.SetDefault("secretKey", "w3lc0me-t0-the-1nstitute-ch4nge-me-1n-pr0d")
	v.SetDefault("resetSecretKey", "a-d1fferent-key-f0r-reset-t0kens")
	v.SetDefault("frontendBaseURL", "http://localhost:5173")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("googleTokenInfoURL", "https://oauth2.googleapis.com/tokeninfo")

	v.SetDefault("serverHost", "0.0.0.0")
	v.SetDefault("serverPort", 8000)
	v.SetDefault("serverDebugHost", "0.0.0.0:8001")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("sessionTokenDelta", 30*24*time.Hour)
	v.SetDefault("resetTokenDelta", 5*time.Minute)

	v.SetDefault("otpLength", 6)
	v.SetDefault("otpAdminTTL", 10*time.Minute)
	v.SetDefault("otpStudentTTL", 5*time.Minute)
	v.SetDefault("otpRequestWindow", time.Hour)
	v.SetDefault("otpMaxRequests", 5)
	v.SetDefault("otpBlockDelta", time.Hour)
	v.SetDefault("otpReaperInterval", time.Minute)

	v.SetDefault("databaseEngine", "postgres")
	v.SetDefault("databaseName", "institute")
	v.SetDefault("databaseUser", "institute")
	v.SetDefault("databasePassword", "institute")
	v.SetDefault("databaseHost", "localhost")
	v.SetDefault("databasePort", 5432)
	v.SetDefault("databaseDisableTLS", true)

	v.SetDefault("uploadBaseURL", "https://api.cloudinary.com/v1_1")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	}
	v.SetEnvPrefix(env)
	v.AutomaticEnv()

	conf := &Config{
		Env:      env,
		Debug:    v.GetBool("debug"),
		TestMode: env == "TEST",
		Build:    v.GetString("build"),

		AppName:          v.GetString("appName"),
		SecretKey:        []byte(v.GetString("secretKey")),
		ResetSecretKey:   []byte(v.GetString("resetSecretKey")),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		DefaultFromEmail: mail.Address{Name: v.GetString("appName"), Address: v.GetString("defaultFromEmail")},

		SendgridAPIKey:     v.GetString("sendgridAPIKey"),
		RollbarToken:       v.GetString("rollbarToken"),
		GoogleTokenInfoURL: v.GetString("googleTokenInfoURL"),

		Server: ServerConfig{
			Host:              v.GetString("serverHost"),
			Port:              v.GetInt("serverPort"),
			DebugHost:         v.GetString("serverDebugHost"),
			ShutdownTimeout:   v.GetDuration("serverShutdownTimeout"),
			SessionTokenDelta: v.GetDuration("sessionTokenDelta"),
			ResetTokenDelta:   v.GetDuration("resetTokenDelta"),
		},
		OTP: OTPConfig{
			Length:         v.GetInt("otpLength"),
			AdminTTL:       v.GetDuration("otpAdminTTL"),
			StudentTTL:     v.GetDuration("otpStudentTTL"),
			RequestWindow:  v.GetDuration("otpRequestWindow"),
			MaxRequests:    v.GetInt("otpMaxRequests"),
			BlockDelta:     v.GetDuration("otpBlockDelta"),
			ReaperInterval: v.GetDuration("otpReaperInterval"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("databaseEngine"),
			Name:          v.GetString("databaseName"),
			User:          v.GetString("databaseUser"),
			Password:      v.GetString("databasePassword"),
			AdminUser:     v.GetString("databaseAdminUser"),
			AdminPassword: v.GetString("databaseAdminPassword"),
			Host:          v.GetString("databaseHost"),
			Port:          v.GetInt("databasePort"),
			DisableTLS:    v.GetBool("databaseDisableTLS"),
		},
		Upload: UploadConfig{
			CloudName: v.GetString("uploadCloudName"),
			APIKey:    v.GetString("uploadAPIKey"),
			APISecret: v.GetString("uploadAPISecret"),
			BaseURL:   v.GetString("uploadBaseURL"),
		},
	}

	if err := conf.validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	return conf
}

func (c *Config) validate() error {
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(string(c.SecretKey), "secretKey"),
		vala.StringNotEmpty(string(c.ResetSecretKey), "resetSecretKey"),
		vala.StringNotEmpty(c.AppName, "appName"),
		vala.StringNotEmpty(c.Database.Name, "databaseName"),
	).Check(); err != nil {
		return err
	}

	// session and reset tokens must never share a signing key
	if string(c.SecretKey) == string(c.ResetSecretKey) {
		return fmt.Errorf("secretKey and resetSecretKey must differ")
	}
	if !c.Debug && c.SendgridAPIKey == "" {
		return fmt.Errorf("sendgridAPIKey is required when debug is off")
	}
	return nil
}
