package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixoform/api/pkg/config"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pixoform")
	t.Setenv("EMAIL", "team@pixoform.com")
	t.Setenv("EMAIL_PASSWORD", "secret")

	cfg, err := config.Parse()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:6000", cfg.Addr())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, config.TransportSMTP, cfg.Mail.Transport)
	assert.Equal(t, "mail.privateemail.com", cfg.Mail.SMTPServer)
	assert.Equal(t, 587, cfg.Mail.SMTPPort)
	assert.Equal(t, 30*time.Second, cfg.Mail.SMTPTimeout)
	assert.Equal(t, "تیم پیکسوفرم", cfg.Mail.FromName)
	assert.Equal(t, "team@pixoform.com", cfg.Mail.AlertRecipient())
	assert.Equal(t, int32(10), cfg.DB.MaxConns)
	assert.Equal(t, 10*time.Second, cfg.DB.ConnectTimeout)
	assert.Equal(t, 5, cfg.DB.PingAttempts)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pixoform")
	t.Setenv("APP_ENV", "production")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "8080")
	t.Setenv("MAIL_TRANSPORT", "stub")
	t.Setenv("EMAIL", "team@pixoform.com")
	t.Setenv("INTERNAL_EMAIL", "leads@pixoform.com")
	t.Setenv("ADMIN_TOKEN", "s3cret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://pixoform.com,https://www.pixoform.com")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := config.Parse()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
	assert.Equal(t, "leads@pixoform.com", cfg.Mail.AlertRecipient())
	assert.Equal(t, "s3cret", cfg.Admin.Token)
	assert.Equal(t, []string{"https://pixoform.com", "https://www.pixoform.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestParse_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("MAIL_TRANSPORT", "stub")

	_, err := config.Parse()
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mail    config.Mail
		port    int
		wantErr bool
	}{
		{name: "smtp complete", mail: config.Mail{Transport: "smtp", Address: "a@b.com", Password: "p"}, port: 6000},
		{name: "smtp missing password", mail: config.Mail{Transport: "smtp", Address: "a@b.com"}, port: 6000, wantErr: true},
		{name: "smtp missing address", mail: config.Mail{Transport: "smtp", Password: "p"}, port: 6000, wantErr: true},
		{name: "ses needs only address", mail: config.Mail{Transport: "ses", Address: "a@b.com"}, port: 6000},
		{name: "stub needs nothing", mail: config.Mail{Transport: "stub"}, port: 6000},
		{name: "unknown transport", mail: config.Mail{Transport: "pigeon"}, port: 6000, wantErr: true},
		{name: "port out of range", mail: config.Mail{Transport: "stub"}, port: 70000, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Port: tt.port, Mail: tt.mail}
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, config.ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}
