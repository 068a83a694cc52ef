package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/nurpe/fleetops-idle/internal/model"
)

type HTTPConfig struct {
	Host string
	Port int
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

type IngestConfig struct {
	// ContractorFormats maps a contractor name to the vendor format its
	// exports always use; the detector prefers this over signature scores.
	ContractorFormats map[string]model.SourceFormat
	MaxUploadBytes    int64
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Ingest      IngestConfig
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

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
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
		Ingest: IngestConfig{
			ContractorFormats: parseFormatMap(v.GetString("INGEST_CONTRACTOR_FORMATS")),
			MaxUploadBytes:    v.GetInt64("INGEST_MAX_UPLOAD_BYTES"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7093
	}
	if cfg.Ingest.MaxUploadBytes == 0 {
		cfg.Ingest.MaxUploadBytes = 16 << 20
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
	return nil
}

var knownFormats = map[string]model.SourceFormat{
	string(model.FormatStopReport):     model.FormatStopReport,
	string(model.FormatTripSummary):    model.FormatTripSummary,
	string(model.FormatEngineIdle):     model.FormatEngineIdle,
	string(model.FormatStopReportHTML): model.FormatStopReportHTML,
	string(model.FormatEngineIdleHTML): model.FormatEngineIdleHTML,
}

// parseFormatMap reads "Contractor A=STOP_REPORT,Contractor B=TRIP_SUMMARY"
// into the detector override table. Unknown format names are dropped.
func parseFormatMap(raw string) map[string]model.SourceFormat {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	result := make(map[string]model.SourceFormat)
	for _, item := range strings.Split(raw, ",") {
		name, format, found := strings.Cut(item, "=")
		if !found {
			continue
		}
		name = strings.TrimSpace(name)
		tag, known := knownFormats[strings.ToUpper(strings.TrimSpace(format))]
		if name == "" || !known {
			continue
		}
		result[name] = tag
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
