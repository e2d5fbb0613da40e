package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// DBConfig Database configuration
type DBConfig struct {
	Type     string `yaml:"type"` // mongodb, postgres, sqlite
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	URI      string `yaml:"uri"` // mongodb connection string
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
	Debug    bool   `yaml:"debug"`
}

// SysConfig System configuration
type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`
}

// WebConfig Web server configuration
type WebConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	BodyMax string `yaml:"body_max"`
}

// LogConfig Logging configuration
type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

// MediaConfig selects and configures the media host.
type MediaConfig struct {
	Provider  string `yaml:"provider"` // cloudinary, local, sftp
	Folder    string `yaml:"folder"`   // root folder, e.g. nijsci
	LocalDir  string `yaml:"local_dir"`
	PublicURL string `yaml:"public_url"` // URL prefix for local and sftp assets

	CloudName string `yaml:"cloud_name"`
	ApiKey    string `yaml:"api_key"`
	ApiSecret string `yaml:"api_secret"`

	SftpAddr   string `yaml:"sftp_addr"`
	SftpUser   string `yaml:"sftp_user"`
	SftpPasswd string `yaml:"sftp_passwd"`
	SftpDir    string `yaml:"sftp_dir"`

	SweepEnable bool `yaml:"sweep_enable"` // daily orphan sweep, local provider only
}

// SmtpConfig Contact mail delivery; an empty host disables mail.
type SmtpConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	User   string `yaml:"user"`
	Passwd string `yaml:"passwd"`
	From   string `yaml:"from"`
	To     string `yaml:"to"`
}

// DefaultSecret is the placeholder signing key shipped in the sample config.
// It is never used to sign tokens.
const DefaultSecret = "change-me"

// AuthConfig Admin authentication
type AuthConfig struct {
	Secret        string `yaml:"secret"`
	SessionHours  int    `yaml:"session_hours"`
	SecureCookie  bool   `yaml:"secure_cookie"`
	BootstrapUser string `yaml:"bootstrap_user"`
	BootstrapPass string `yaml:"bootstrap_pass"`
}

// EnsureSecret replaces an empty or placeholder signing key with a random
// per-process one and reports whether it did so. Sessions issued with a
// generated key do not survive a restart.
func (c *AuthConfig) EnsureSecret() bool {
	if s := strings.TrimSpace(c.Secret); s != "" && s != DefaultSecret {
		return false
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	c.Secret = hex.EncodeToString(buf)
	return true
}

// AppConfig Application configuration
type AppConfig struct {
	System   SysConfig   `yaml:"system"`
	Web      WebConfig   `yaml:"web"`
	Database DBConfig    `yaml:"database"`
	Logger   LogConfig   `yaml:"logger"`
	Media    MediaConfig `yaml:"media"`
	Smtp     SmtpConfig  `yaml:"smtp"`
	Auth     AuthConfig  `yaml:"auth"`
}

func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return path.Join(c.System.Workdir, "data")
}

// MailEnabled reports whether contact messages can be delivered.
func (c *AppConfig) MailEnabled() bool {
	return strings.TrimSpace(c.Smtp.Host) != "" && strings.TrimSpace(c.Smtp.To) != ""
}

// InitDirs creates the working directories
func (c *AppConfig) InitDirs() {
	_ = os.MkdirAll(path.Join(c.System.Workdir, "logs"), 0o700)
	_ = os.MkdirAll(path.Join(c.System.Workdir, "data"), 0o700)
	if c.Media.Provider == "local" {
		_ = os.MkdirAll(c.Media.LocalDir, 0o755)
	}
}

func setEnvValue(name string, val *string) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		*val = evalue
	}
}

func setEnvBoolValue(name string, val *bool) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		*val = cast.ToBool(evalue)
	}
}

func setEnvIntValue(name string, val *int) {
	var evalue = os.Getenv(name)
	if evalue == "" {
		return
	}
	if v, err := strconv.Atoi(strings.TrimSpace(evalue)); err == nil {
		*val = v
	}
}

// DefaultAppConfig returns a configuration usable for local development.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		System: SysConfig{
			Appid:    "LabCatalog",
			Location: "Asia/Kolkata",
			Workdir:  "/var/labcatalog",
			Debug:    true,
		},
		Web: WebConfig{
			Host:    "0.0.0.0",
			Port:    3000,
			BodyMax: "32M",
		},
		Database: DBConfig{
			Type:     "mongodb",
			URI:      "mongodb://127.0.0.1:27017",
			Host:     "127.0.0.1",
			Port:     5432,
			Name:     "labcatalog",
			User:     "postgres",
			Passwd:   "",
			MaxConn:  100,
			IdleConn: 10,
		},
		Logger: LogConfig{
			Mode:       "development",
			FileEnable: true,
			Filename:   "/var/labcatalog/logs/labcatalog.log",
		},
		Media: MediaConfig{
			Provider:    "local",
			Folder:      "nijsci",
			LocalDir:    "/var/labcatalog/uploads",
			PublicURL:   "/uploads",
			SftpDir:     "/srv/media",
			SweepEnable: true,
		},
		Smtp: SmtpConfig{
			Port: 587,
		},
		Auth: AuthConfig{
			Secret:        DefaultSecret,
			SessionHours:  24,
			BootstrapUser: "admin",
			BootstrapPass: "admin123",
		},
	}
}

// LoadConfig reads the YAML file when it exists and applies environment
// overrides on top of the defaults.
func LoadConfig(cfile string) *AppConfig {
	if cfile == "" {
		cfile = "labcatalog.yml"
	}
	if _, err := os.Stat("/etc/labcatalog.yml"); err == nil && cfile == "labcatalog.yml" {
		cfile = "/etc/labcatalog.yml"
	}

	cfg := DefaultAppConfig()
	if data, err := os.ReadFile(cfile); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			panic(err)
		}
	}

	setEnvValue("LABCATALOG_SYSTEM_WORKER_DIR", &cfg.System.Workdir)
	setEnvBoolValue("LABCATALOG_SYSTEM_DEBUG", &cfg.System.Debug)

	setEnvValue("LABCATALOG_WEB_HOST", &cfg.Web.Host)
	setEnvIntValue("LABCATALOG_WEB_PORT", &cfg.Web.Port)

	setEnvValue("LABCATALOG_DB_TYPE", &cfg.Database.Type)
	setEnvValue("LABCATALOG_DB_URI", &cfg.Database.URI)
	setEnvValue("LABCATALOG_DB_HOST", &cfg.Database.Host)
	setEnvIntValue("LABCATALOG_DB_PORT", &cfg.Database.Port)
	setEnvValue("LABCATALOG_DB_NAME", &cfg.Database.Name)
	setEnvValue("LABCATALOG_DB_USER", &cfg.Database.User)
	setEnvValue("LABCATALOG_DB_PWD", &cfg.Database.Passwd)
	setEnvBoolValue("LABCATALOG_DB_DEBUG", &cfg.Database.Debug)

	setEnvValue("LABCATALOG_LOGGER_MODE", &cfg.Logger.Mode)
	setEnvBoolValue("LABCATALOG_LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)

	setEnvValue("LABCATALOG_MEDIA_PROVIDER", &cfg.Media.Provider)
	setEnvValue("LABCATALOG_MEDIA_FOLDER", &cfg.Media.Folder)
	setEnvValue("LABCATALOG_MEDIA_LOCAL_DIR", &cfg.Media.LocalDir)
	setEnvValue("LABCATALOG_MEDIA_PUBLIC_URL", &cfg.Media.PublicURL)
	setEnvValue("CLOUDINARY_CLOUD_NAME", &cfg.Media.CloudName)
	setEnvValue("CLOUDINARY_API_KEY", &cfg.Media.ApiKey)
	setEnvValue("CLOUDINARY_API_SECRET", &cfg.Media.ApiSecret)
	setEnvValue("LABCATALOG_SFTP_ADDR", &cfg.Media.SftpAddr)
	setEnvValue("LABCATALOG_SFTP_USER", &cfg.Media.SftpUser)
	setEnvValue("LABCATALOG_SFTP_PWD", &cfg.Media.SftpPasswd)
	setEnvValue("LABCATALOG_SFTP_DIR", &cfg.Media.SftpDir)
	setEnvBoolValue("LABCATALOG_MEDIA_SWEEP", &cfg.Media.SweepEnable)

	setEnvValue("LABCATALOG_SMTP_HOST", &cfg.Smtp.Host)
	setEnvIntValue("LABCATALOG_SMTP_PORT", &cfg.Smtp.Port)
	setEnvValue("LABCATALOG_SMTP_USER", &cfg.Smtp.User)
	setEnvValue("LABCATALOG_SMTP_PWD", &cfg.Smtp.Passwd)
	setEnvValue("LABCATALOG_SMTP_FROM", &cfg.Smtp.From)
	setEnvValue("LABCATALOG_SMTP_TO", &cfg.Smtp.To)

	setEnvValue("LABCATALOG_AUTH_SECRET", &cfg.Auth.Secret)
	setEnvIntValue("LABCATALOG_AUTH_SESSION_HOURS", &cfg.Auth.SessionHours)
	setEnvBoolValue("LABCATALOG_AUTH_SECURE_COOKIE", &cfg.Auth.SecureCookie)

	return cfg
}
