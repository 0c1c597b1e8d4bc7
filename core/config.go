package core

import (
	"log"
	"net"
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
	Config struct {
		Debug    bool
		TestMode bool
		Env      string // DEV (local; default), TEST, QA, PROD
		Build    string
		WorkDir  string

		AppName                   string
		SecretKey                 string
		RollbarToken              string
		FrontendBaseURL           string
		DefaultFromEmail          mail.Address
		SendgridApiKey            string
		PasswordResetTimeoutDelta time.Duration

		Server   ServerConfig
		Database DatabaseConfig
		Storage  StorageConfig
		Events   EventsConfig
		Cache    CacheConfig
	}

	ServerConfig struct {
		Host                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		AllowedOrigins            []string
	}

	DatabaseConfig struct {
		Engine        string // postgres | memory
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		Name          string
		DisableTLS    bool
	}

	StorageConfig struct {
		Backend   string // disk | minio
		UploadDir string
		BaseURL   string
		MinIO     MinIOConfig
	}

	MinIOConfig struct {
		Endpoint        string
		AccessKey       string
		SecretKey       string
		Bucket          string
		UseSSL          bool
		PresignedURLTTL time.Duration
	}

	EventsConfig struct {
		NatsURL string // events are only logged when empty
	}

	CacheConfig struct {
		DefaultExpiration time.Duration
		CleanupInterval   time.Duration
	}
)

func (dbc DatabaseConfig) Address() string {
	return net.JoinHostPort(dbc.Host, dbc.Port)
}

// NewConfig loads the configuration from the environment (and `config/.env.<env>` if it exists).
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Lophoc")
	v.SetDefault("secretKey", "d8u3-kq)w!xn$+41=zc&toeh7(p!x)#*b2(#yf4h^$cegm9pw")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "Lophoc <noreply@localhost>")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("serverHost", "0.0.0.0:8000")
	v.SetDefault("serverDebugHost", "0.0.0.0:4000")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("jwtExpirationDelta", 10*time.Minute)
	v.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("allowedOrigins", "*")

	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbUser", "lophoc")
	v.SetDefault("dbPassword", "lophoc")
	v.SetDefault("dbAdminUser", "")
	v.SetDefault("dbAdminPassword", "")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("dbName", "lophoc")
	v.SetDefault("dbDisableTLS", true)

	v.SetDefault("storageBackend", "disk")
	v.SetDefault("uploadDir", "uploads")
	v.SetDefault("storageBaseURL", "http://localhost:8000")
	v.SetDefault("minioEndpoint", "localhost:9000")
	v.SetDefault("minioAccessKey", "")
	v.SetDefault("minioSecretKey", "")
	v.SetDefault("minioBucket", "lophoc")
	v.SetDefault("minioUseSSL", false)
	v.SetDefault("minioPresignedURLTTL", time.Hour)

	v.SetDefault("natsURL", "")

	v.SetDefault("cacheDefaultExpiration", 10*time.Minute)
	v.SetDefault("cacheCleanupInterval", 15*time.Minute)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	fromEmail, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.mail.ParseAddress(%s): %v", v.GetString("defaultFromEmail"), err)
	}

	conf := &Config{
		Debug:    v.GetBool("debug"),
		TestMode: v.GetBool("testMode"),
		Env:      env,
		Build:    v.GetString("build"),
		WorkDir:  wd,

		AppName:                   v.GetString("appName"),
		SecretKey:                 v.GetString("secretKey"),
		RollbarToken:              v.GetString("rollbarToken"),
		FrontendBaseURL:           strings.TrimSuffix(v.GetString("frontendBaseURL"), "/"),
		DefaultFromEmail:          *fromEmail,
		SendgridApiKey:            v.GetString("sendgridApiKey"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),

		Server: ServerConfig{
			Host:                      v.GetString("serverHost"),
			DebugHost:                 v.GetString("serverDebugHost"),
			ShutdownTimeout:           v.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
			AllowedOrigins:            splitList(v.GetString("allowedOrigins")),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetString("dbPort"),
			Name:          v.GetString("dbName"),
			DisableTLS:    v.GetBool("dbDisableTLS"),
		},
		Storage: StorageConfig{
			Backend:   v.GetString("storageBackend"),
			UploadDir: v.GetString("uploadDir"),
			BaseURL:   strings.TrimSuffix(v.GetString("storageBaseURL"), "/"),
			MinIO: MinIOConfig{
				Endpoint:        v.GetString("minioEndpoint"),
				AccessKey:       v.GetString("minioAccessKey"),
				SecretKey:       v.GetString("minioSecretKey"),
				Bucket:          v.GetString("minioBucket"),
				UseSSL:          v.GetBool("minioUseSSL"),
				PresignedURLTTL: v.GetDuration("minioPresignedURLTTL"),
			},
		},
		Events: EventsConfig{
			NatsURL: v.GetString("natsURL"),
		},
		Cache: CacheConfig{
			DefaultExpiration: v.GetDuration("cacheDefaultExpiration"),
			CleanupInterval:   v.GetDuration("cacheCleanupInterval"),
		},
	}
	if !filepath.IsAbs(conf.Storage.UploadDir) {
		conf.Storage.UploadDir = filepath.Join(wd, conf.Storage.UploadDir)
	}
	return conf
}

// Validate checks that the settings required to run the app are present.
func (c *Config) Validate() error {
	return vala.BeginValidation().Validate(
		vala.StringNotEmpty(c.SecretKey, "SecretKey"),
		vala.StringNotEmpty(c.Server.Host, "Server.Host"),
		vala.GreaterThan(int(c.Server.JWTExpirationDelta), 0, "Server.JWTExpirationDelta"),
		vala.StringNotEmpty(c.Database.Engine, "Database.Engine"),
		vala.StringNotEmpty(c.Storage.Backend, "Storage.Backend"),
		vala.StringNotEmpty(c.Storage.UploadDir, "Storage.UploadDir"),
	).Check()
}

// NewTestConfig returns a Config suited for tests: nothing is read from the environment.
func NewTestConfig() *Config {
	return &Config{
		Debug:                     false,
		TestMode:                  true,
		Env:                       "TEST",
		Build:                     "test",
		WorkDir:                   os.TempDir(),
		AppName:                   "Lophoc",
		SecretKey:                 "test-secret",
		FrontendBaseURL:           "http://frontend.test",
		DefaultFromEmail:          mail.Address{Name: "Lophoc", Address: "noreply@lophoc.test"},
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: ServerConfig{
			Host:                      "localhost:8000",
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			AllowedOrigins:            []string{"*"},
		},
		Database: DatabaseConfig{Engine: "memory"},
		Storage: StorageConfig{
			Backend:   "disk",
			UploadDir: filepath.Join(os.TempDir(), "lophoc-uploads"),
			BaseURL:   "http://api.test",
		},
		Cache: CacheConfig{
			DefaultExpiration: time.Minute,
			CleanupInterval:   time.Minute,
		},
	}
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
