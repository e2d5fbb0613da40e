package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Equal(t, "mongodb", cfg.Database.Type)
	assert.Equal(t, "nijsci", cfg.Media.Folder)
	assert.Equal(t, 24, cfg.Auth.SessionHours)
	assert.Equal(t, DefaultSecret, cfg.Auth.Secret)
	assert.True(t, cfg.Media.SweepEnable)
	assert.False(t, cfg.MailEnabled())
}

func TestEnsureSecret(t *testing.T) {
	for _, secret := range []string{"", "  ", DefaultSecret} {
		auth := AuthConfig{Secret: secret}
		assert.True(t, auth.EnsureSecret())
		assert.Len(t, auth.Secret, 64)
		assert.NotEqual(t, DefaultSecret, auth.Secret)
	}

	a, b := AuthConfig{}, AuthConfig{}
	a.EnsureSecret()
	b.EnsureSecret()
	assert.NotEqual(t, a.Secret, b.Secret)

	custom := AuthConfig{Secret: "s3cr3t-from-ops"}
	assert.False(t, custom.EnsureSecret())
	assert.Equal(t, "s3cr3t-from-ops", custom.Secret)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	file := filepath.Join(t.TempDir(), "labcatalog.yml")
	content := []byte(`
web:
  port: 8088
database:
  type: postgres
media:
  provider: cloudinary
smtp:
  host: smtp.example.com
  to: sales@example.com
`)
	require.NoError(t, os.WriteFile(file, content, 0o600))

	t.Setenv("LABCATALOG_WEB_PORT", "9099")
	t.Setenv("CLOUDINARY_CLOUD_NAME", "demo")
	t.Setenv("LABCATALOG_MEDIA_SWEEP", "false")

	cfg := LoadConfig(file)
	assert.Equal(t, 9099, cfg.Web.Port)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "cloudinary", cfg.Media.Provider)
	assert.Equal(t, "demo", cfg.Media.CloudName)
	assert.False(t, cfg.Media.SweepEnable)
	assert.True(t, cfg.MailEnabled())
	// untouched sections keep their defaults
	assert.Equal(t, "admin", cfg.Auth.BootstrapUser)
}

func TestSetEnvIntValueIgnoresGarbage(t *testing.T) {
	t.Setenv("LABCATALOG_TEST_INT", "not-a-number")
	v := 7
	setEnvIntValue("LABCATALOG_TEST_INT", &v)
	assert.Equal(t, 7, v)
}

func TestSetEnvIntValueIsDecimal(t *testing.T) {
	v := 0
	t.Setenv("LABCATALOG_TEST_INT", "010")
	setEnvIntValue("LABCATALOG_TEST_INT", &v)
	assert.Equal(t, 10, v)

	t.Setenv("LABCATALOG_TEST_INT", "08")
	setEnvIntValue("LABCATALOG_TEST_INT", &v)
	assert.Equal(t, 8, v)
}
