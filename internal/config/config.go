package config

import (
	"log"
	"os"
	"strconv"
)

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	MaxRetries  int
	DialTimeout int
	Timeout     int
	Prefix      string
}

type S3Config struct {
	Enabled         bool
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
	Prefix          string
}

type SyncConfig struct {
	// permissive (default) treats every account as present when the
	// cadastral source is unreachable; strict aborts the run instead
	CadastralPolicy string
	// form whose answers mark a request as carrying a cadastral account
	CadastralFormID int64
}

type AppConfig struct {
	Port string

	PointOfSale PostgresConfig
	Cadastral   PostgresConfig
	Ledger      PostgresConfig

	Redis RedisConfig
	S3    S3Config
	Sync  SyncConfig

	ReportDir         string
	FilesPublicPrefix string
	ExternalURL       string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func mustAtoi(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int value %q: %v", s, err)
	}
	return i
}

func mustBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		log.Fatalf("invalid bool value %q: %v", s, err)
	}
	return b
}

func loadPostgres(prefix, defaultDB string) PostgresConfig {
	return PostgresConfig{
		Host:     getenv(prefix+"_HOST", "127.0.0.1"),
		Port:     mustAtoi(getenv(prefix+"_PORT", "5432")),
		User:     getenv(prefix+"_USER", "root"),
		Password: getenv(prefix+"_PASSWORD", ""),
		DBName:   getenv(prefix+"_DB", defaultDB),
		SSLMode:  getenv(prefix+"_SSLMODE", "disable"),
	}
}

func Load() AppConfig {
	return AppConfig{
		Port: getenv("APP_PORT", "8020"),

		PointOfSale: loadPostgres("POS_PG", "punto_venta"),
		Cadastral:   loadPostgres("CAT_PG", "catastro"),
		Ledger:      loadPostgres("LEDGER_PG", "sigsa"),

		Redis: RedisConfig{
			Addr:        getenv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:    getenv("REDIS_PASSWORD", ""),
			DB:          mustAtoi(getenv("REDIS_DB", "0")),
			MaxRetries:  mustAtoi(getenv("REDIS_MAX_RETRIES", "5")),
			DialTimeout: mustAtoi(getenv("REDIS_DIAL_TIMEOUT", "10")),
			Timeout:     mustAtoi(getenv("REDIS_TIMEOUT", "5")),
			Prefix:      getenv("REDIS_PREFIX", "pagos_sync_"),
		},
		S3: S3Config{
			Enabled:         mustBool(getenv("S3_ENABLED", "false")),
			Endpoint:        getenv("S3_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getenv("S3_ACCESS_KEY", "minio"),
			SecretAccessKey: getenv("S3_SECRET_KEY", "minio123"),
			Bucket:          getenv("S3_BUCKET", "reportes"),
			Region:          getenv("S3_REGION", "us-east-1"),
			UseSSL:          mustBool(getenv("S3_USE_SSL", "false")),
			Prefix:          getenv("S3_PREFIX", ""),
		},
		Sync: SyncConfig{
			CadastralPolicy: getenv("SYNC_CADASTRAL_POLICY", "permissive"),
			CadastralFormID: int64(mustAtoi(getenv("POS_CADASTRAL_FORM_ID", "1"))),
		},

		ReportDir:         getenv("REPORT_DIR", "./reports"),
		FilesPublicPrefix: getenv("FILES_PUBLIC_PREFIX", "/files"),
		ExternalURL:       getenv("EXTERNAL_URL", ""),
	}
}
