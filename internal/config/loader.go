package config

import (
	"fmt"
	"strings"

	"github.com/ccsdpt/hisweb/internal/db"
	"github.com/spf13/viper"
)

// Config is the full startup configuration. It is built once in main and
// passed explicitly to the components that need it; request logic never reads
// the environment.
type Config struct {
	Database db.Config

	UploadTable   string
	DownloadTable string
	ShelterColumn string
	DateColumn    string
	SheetName     string

	UploadDir    string
	TemplatePath string
	StaticDir    string

	ListenAddr string
	Debug      bool
	EnableCORS bool
}

// DatabaseConfigured reports whether enough connection parameters were
// provided to reach a relational store. Without them the local fallback store
// serves downloads.
func (c Config) DatabaseConfigured() bool {
	return c.Database.Host != "" && c.Database.User != "" && c.Database.DBName != ""
}

// Load reads config.yaml from configPath, then applies HIS_-prefixed
// environment overrides (HIS_DATABASE_HOST, HIS_UPLOAD_TABLE, ...).
func Load(configPath string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("HIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	keys := []string{
		"database.host", "database.port", "database.user", "database.password",
		"database.dbname", "database.sslmode",
		"upload_table", "download_table", "shelter_column", "date_column", "sheet_name",
		"upload_dir", "template_path", "static_dir",
		"listen_addr", "debug", "enable_cors",
	}
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return cfg, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// Missing config.yaml is fine, defaults plus env vars apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
	}

	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("upload_table") {
		cfg.UploadTable = v.GetString("upload_table")
	}
	if v.IsSet("download_table") {
		cfg.DownloadTable = v.GetString("download_table")
	}
	if v.IsSet("shelter_column") {
		cfg.ShelterColumn = v.GetString("shelter_column")
	}
	if v.IsSet("date_column") {
		cfg.DateColumn = v.GetString("date_column")
	}
	if v.IsSet("sheet_name") {
		cfg.SheetName = v.GetString("sheet_name")
	}
	if v.IsSet("upload_dir") {
		cfg.UploadDir = v.GetString("upload_dir")
	}
	if v.IsSet("template_path") {
		cfg.TemplatePath = v.GetString("template_path")
	}
	if v.IsSet("static_dir") {
		cfg.StaticDir = v.GetString("static_dir")
	}
	if v.IsSet("listen_addr") {
		cfg.ListenAddr = v.GetString("listen_addr")
	}
	if v.IsSet("debug") {
		cfg.Debug = v.GetBool("debug")
	}
	if v.IsSet("enable_cors") {
		cfg.EnableCORS = v.GetBool("enable_cors")
	}

	return cfg, nil
}

// Default returns the configuration used when nothing is provided. The
// database host is intentionally empty: an unconfigured store activates the
// local fallback.
func Default() Config {
	return Config{
		Database:      db.Config{Port: 5432, SSLMode: "disable"},
		UploadTable:   "hisup",
		DownloadTable: "hisup_final",
		ShelterColumn: "shelter",
		DateColumn:    "dateofrpt",
		SheetName:     "JSON",
		UploadDir:     "uploads",
		TemplatePath:  "static/HFTallySheet.xlsx",
		StaticDir:     "static",
		ListenAddr:    ":8080",
	}
}
