package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/podryad")
	t.Setenv("JWT_ACCESS_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, 7089, cfg.HTTP.Port)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSAllowedOrigins)
	assert.Equal(t, 5, cfg.Numbering.MaxAttempts)
	assert.False(t, cfg.Documents.LenientNumbers)
	assert.False(t, cfg.Documents.KopecksInWords)
	assert.Equal(t, "./assets/fonts/DejaVuSans.ttf", cfg.Documents.PDFFontPath)
	assert.Equal(t, "./assets/fonts/DejaVuSans-Bold.ttf", cfg.Documents.PDFBoldFontPath)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/podryad")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("APP_ENV", "production")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("NUMBERING_MAX_ATTEMPTS", "8")
	t.Setenv("COSTING_LENIENT_NUMBERS", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.by, https://b.by,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 9000, cfg.HTTP.Port)
	assert.Equal(t, 8, cfg.Numbering.MaxAttempts)
	assert.True(t, cfg.Documents.LenientNumbers)
	assert.Equal(t, []string{"https://a.by", "https://b.by"}, cfg.HTTP.CORSAllowedOrigins)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		set  map[string]any
		want string
	}{
		{"missing dsn", map[string]any{"JWT_ACCESS_SECRET": "s"}, "DB_DSN is required"},
		{"missing secret", map[string]any{"DB_DSN": "dsn"}, "JWT_ACCESS_SECRET is required"},
		{"bad attempts", map[string]any{"DB_DSN": "dsn", "JWT_ACCESS_SECRET": "s", "NUMBERING_MAX_ATTEMPTS": -1}, "NUMBERING_MAX_ATTEMPTS must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			for k, val := range tt.set {
				v.Set(k, val)
			}
			_, err := fromViper(v)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}
