package config

import (
	"os"
	"path"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/bytes"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// SysConfig system configuration
type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`
}

// WebConfig web server configuration
type WebConfig struct {
	Host          string   `yaml:"host"`
	Port          int      `yaml:"port"`
	AllowOrigins  []string `yaml:"allow_origins"`
	BodyLimit     string   `yaml:"body_limit"`
	UploadMaxSize string   `yaml:"upload_max_size"`
	UploadWorkers int      `yaml:"upload_workers"`
}

// AuthConfig admin session configuration
type AuthConfig struct {
	BootstrapPassword string        `yaml:"bootstrap_password"`
	TokenTTL          time.Duration `yaml:"token_ttl"`
	LoginFailDelay    time.Duration `yaml:"login_fail_delay"`
	MinPasswordLen    int           `yaml:"min_password_len"`
}

// LogConfig logging configuration
type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

// ClientConfig settings used by the catalogsync client
type ClientConfig struct {
	ServerURL    string        `yaml:"server_url"`
	CacheFile    string        `yaml:"cache_file"`
	CacheVersion string        `yaml:"cache_version"`
	Schedule     string        `yaml:"schedule"`
	Timeout      time.Duration `yaml:"timeout"`
}

type AppConfig struct {
	System SysConfig    `yaml:"system"`
	Web    WebConfig    `yaml:"web"`
	Auth   AuthConfig   `yaml:"auth"`
	Logger LogConfig    `yaml:"logger"`
	Client ClientConfig `yaml:"client"`
}

func (c *AppConfig) GetDataDir() string {
	return path.Join(c.System.Workdir, "data")
}

func (c *AppConfig) GetUploadsDir() string {
	return path.Join(c.System.Workdir, "uploads")
}

// GetProductImagesDir is where uploaded product images are stored; it is
// served under /uploads/products/.
func (c *AppConfig) GetProductImagesDir() string {
	return path.Join(c.GetUploadsDir(), "products")
}

func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

// UploadMaxBytes parses web.upload_max_size ("5MiB"), falling back to 5 MiB.
func (c *AppConfig) UploadMaxBytes() int64 {
	n, err := bytes.Parse(c.Web.UploadMaxSize)
	if err != nil || n <= 0 {
		return 5 << 20
	}
	return n
}

// InitDirs creates the working directories.
func (c *AppConfig) InitDirs() error {
	for _, dir := range []string{c.System.Workdir, c.GetDataDir(), c.GetProductImagesDir(), c.GetLogDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "catalogd",
		Location: "Asia/Bishkek",
		Workdir:  "/var/catalogd",
		Debug:    true,
	},
	Web: WebConfig{
		Host: "0.0.0.0",
		Port: 8080,
		AllowOrigins: []string{
			"http://aquachemistry.kg",
			"https://aquachemistry.kg",
			"http://localhost:5173",
			"http://localhost:3000",
		},
		BodyLimit:     "32M",
		UploadMaxSize: "5MiB",
		UploadWorkers: 4,
	},
	Auth: AuthConfig{
		BootstrapPassword: "admin123",
		TokenTTL:          7 * 24 * time.Hour,
		LoginFailDelay:    time.Second,
		MinPasswordLen:    6,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/catalogd/logs/catalogd.log",
	},
	Client: ClientConfig{
		ServerURL:    "http://127.0.0.1:8080",
		CacheFile:    "/var/catalogd/client-cache.db",
		CacheVersion: "3",
		Schedule:     "@every 5m",
		Timeout:      10 * time.Second,
	},
}

// LoadConfig reads cfile (if present), applies .env and CATALOGD_* overrides.
func LoadConfig(cfile string) *AppConfig {
	cfg := *DefaultAppConfig
	cfg.Web.AllowOrigins = append([]string(nil), DefaultAppConfig.Web.AllowOrigins...)

	if cfile == "" {
		cfile = "catalogd.yml"
	}
	if !fileExists(cfile) {
		cfile = "/etc/catalogd.yml"
	}
	if fileExists(cfile) {
		data, err := os.ReadFile(cfile)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				panic(err)
			}
		}
	}

	_ = godotenv.Load()

	setEnvValue("CATALOGD_SYSTEM_WORKDIR", &cfg.System.Workdir)
	setEnvValue("CATALOGD_SYSTEM_LOCATION", &cfg.System.Location)
	setEnvBoolValue("CATALOGD_SYSTEM_DEBUG", &cfg.System.Debug)

	setEnvValue("CATALOGD_WEB_HOST", &cfg.Web.Host)
	setEnvIntValue("CATALOGD_WEB_PORT", &cfg.Web.Port)
	setEnvSliceValue("CATALOGD_WEB_ALLOW_ORIGINS", &cfg.Web.AllowOrigins)
	setEnvValue("CATALOGD_WEB_UPLOAD_MAX_SIZE", &cfg.Web.UploadMaxSize)

	setEnvValue("CATALOGD_AUTH_BOOTSTRAP_PASSWORD", &cfg.Auth.BootstrapPassword)
	setEnvDurationValue("CATALOGD_AUTH_TOKEN_TTL", &cfg.Auth.TokenTTL)
	setEnvDurationValue("CATALOGD_AUTH_LOGIN_FAIL_DELAY", &cfg.Auth.LoginFailDelay)

	setEnvValue("CATALOGD_LOGGER_MODE", &cfg.Logger.Mode)
	setEnvBoolValue("CATALOGD_LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)
	setEnvValue("CATALOGD_LOGGER_FILENAME", &cfg.Logger.Filename)

	setEnvValue("CATALOGD_CLIENT_SERVER_URL", &cfg.Client.ServerURL)
	setEnvValue("CATALOGD_CLIENT_CACHE_FILE", &cfg.Client.CacheFile)
	setEnvValue("CATALOGD_CLIENT_CACHE_VERSION", &cfg.Client.CacheVersion)
	setEnvValue("CATALOGD_CLIENT_SCHEDULE", &cfg.Client.Schedule)

	return &cfg
}

// SaveConfig writes cfg as yaml to cfile.
func SaveConfig(cfg *AppConfig, cfile string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(cfile, data, 0o644)
}

func fileExists(file string) bool {
	info, err := os.Stat(file)
	return err == nil && !info.IsDir()
}

func setEnvValue(name string, val *string) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		*val = evalue
	}
}

func setEnvBoolValue(name string, val *bool) {
	var evalue = os.Getenv(name)
	if evalue == "" {
		return
	}
	if b, err := cast.ToBoolE(evalue); err == nil {
		*val = b
	}
}

func setEnvIntValue(name string, val *int) {
	var evalue = os.Getenv(name)
	if evalue == "" {
		return
	}
	if n, err := cast.ToIntE(evalue); err == nil {
		*val = n
	}
}

func setEnvDurationValue(name string, val *time.Duration) {
	var evalue = os.Getenv(name)
	if evalue == "" {
		return
	}
	if d, err := cast.ToDurationE(evalue); err == nil {
		*val = d
	}
}

func setEnvSliceValue(name string, val *[]string) {
	var evalue = os.Getenv(name)
	if evalue == "" {
		return
	}
	var items []string
	for _, s := range strings.Split(evalue, ",") {
		if s = strings.TrimSpace(s); s != "" {
			items = append(items, s)
		}
	}
	*val = items
}
