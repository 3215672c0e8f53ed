package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const insecureDefaultSecret = "change-me-in-production"

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	Env           string
	ListenAddr    string
	Port          string
	GinMode       string
	LogLevel      string
	SecretKey     string
	SiteURL       string
	SiteName      string
	DatabaseURL   string
	AdminUsername string
	AdminPassword string
	ContactEmail  string
	Timezone      string
	StaticDir     string
	UploadDir     string
	UploadURLPath string
	MediaStorage  string
	S3Bucket      string
	S3Prefix      string
	S3PublicURL   string
}

// IsDevelopment reports whether ENV is "development".
func (c AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// UsesDefaultSecret reports whether SECRET_KEY was left at its placeholder.
func (c AppConfig) UsesDefaultSecret() bool {
	return c.SecretKey == insecureDefaultSecret
}

// Load 读取 .env（若存在）与环境变量，并为缺失项提供默认值。
// v may carry bound CLI flags; nil uses a fresh viper instance.
func Load(v *viper.Viper) AppConfig {
	_ = godotenv.Load()

	if v == nil {
		v = viper.New()
	}
	v.AutomaticEnv()

	v.SetDefault("ENV", "development")
	v.SetDefault("PORT", "8000")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SECRET_KEY", insecureDefaultSecret)
	v.SetDefault("SITE_URL", "http://localhost:8000")
	v.SetDefault("SITE_NAME", "Projekt FIRE")
	v.SetDefault("DATABASE_URL", "data/projektfire.db")
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("CONTACT_EMAIL", "kontakt@projektfire.pl")
	v.SetDefault("TIMEZONE", "Europe/Warsaw")
	v.SetDefault("STATIC_DIR", "web/static")
	v.SetDefault("UPLOAD_DIR", "web/uploads")
	v.SetDefault("UPLOAD_URL_PATH", "/uploads")
	v.SetDefault("MEDIA_STORAGE", "local")

	port := str(v, "PORT", "8000")
	listenAddr := str(v, "LISTEN_ADDR", fmt.Sprintf(":%s", port))

	return AppConfig{
		Env:           strings.ToLower(str(v, "ENV", "development")),
		ListenAddr:    listenAddr,
		Port:          port,
		GinMode:       str(v, "GIN_MODE", "release"),
		LogLevel:      strings.ToLower(str(v, "LOG_LEVEL", "info")),
		SecretKey:     str(v, "SECRET_KEY", insecureDefaultSecret),
		SiteURL:       strings.TrimRight(str(v, "SITE_URL", "http://localhost:8000"), "/"),
		SiteName:      str(v, "SITE_NAME", "Projekt FIRE"),
		DatabaseURL:   str(v, "DATABASE_URL", "data/projektfire.db"),
		AdminUsername: str(v, "ADMIN_USERNAME", "admin"),
		AdminPassword: v.GetString("ADMIN_PASSWORD"), // blank leaves the stored account untouched
		ContactEmail:  str(v, "CONTACT_EMAIL", "kontakt@projektfire.pl"),
		Timezone:      str(v, "TIMEZONE", "Europe/Warsaw"),
		StaticDir:     str(v, "STATIC_DIR", "web/static"),
		UploadDir:     str(v, "UPLOAD_DIR", "web/uploads"),
		UploadURLPath: "/" + strings.Trim(str(v, "UPLOAD_URL_PATH", "/uploads"), "/"),
		MediaStorage:  strings.ToLower(str(v, "MEDIA_STORAGE", "local")),
		S3Bucket:      str(v, "S3_BUCKET", ""),
		S3Prefix:      strings.Trim(str(v, "S3_PREFIX", ""), "/"),
		S3PublicURL:   strings.TrimRight(str(v, "S3_PUBLIC_URL", ""), "/"),
	}
}

func str(v *viper.Viper, key, fallback string) string {
	value := strings.TrimSpace(v.GetString(key))
	if value == "" {
		return fallback
	}
	return value
}
