package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host               string
	Port               int
	CORSAllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
}

type NumberingConfig struct {
	MaxAttempts int
}

type DocumentsConfig struct {
	// LenientNumbers coerces bad quantities and prices to zero instead of rejecting them.
	LenientNumbers  bool
	KopecksInWords  bool
	PDFFontPath     string
	PDFBoldFontPath string
}

type Config struct {
	Environment string
	LogLevel    string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Numbering   NumberingConfig
	Documents   DocumentsConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		HTTP: HTTPConfig{
			Host:               v.GetString("HTTP_HOST"),
			Port:               v.GetInt("HTTP_PORT"),
			CORSAllowedOrigins: parseList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Numbering: NumberingConfig{
			MaxAttempts: v.GetInt("NUMBERING_MAX_ATTEMPTS"),
		},
		Documents: DocumentsConfig{
			LenientNumbers:  v.GetBool("COSTING_LENIENT_NUMBERS"),
			KopecksInWords:  v.GetBool("KOPECKS_IN_WORDS"),
			PDFFontPath:     v.GetString("PDF_FONT_PATH"),
			PDFBoldFontPath: v.GetString("PDF_BOLD_FONT_PATH"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7089
	}
	if len(cfg.HTTP.CORSAllowedOrigins) == 0 {
		cfg.HTTP.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.Numbering.MaxAttempts == 0 {
		cfg.Numbering.MaxAttempts = 5
	}
	if cfg.Documents.PDFFontPath == "" {
		cfg.Documents.PDFFontPath = "./assets/fonts/DejaVuSans.ttf"
	}
	if cfg.Documents.PDFBoldFontPath == "" {
		cfg.Documents.PDFBoldFontPath = "./assets/fonts/DejaVuSans-Bold.ttf"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Numbering.MaxAttempts < 1 {
		return fmt.Errorf("NUMBERING_MAX_ATTEMPTS must be positive")
	}
	return nil
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
