package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/cityai/internal/flagx"
	"github.com/dmitrijs2005/cityai/internal/timex"
)

// JsonConfig is the JSON shape of Config. Durations accept both "1m" style
// strings and integer nanoseconds (timex.Duration).
type JsonConfig struct {
	EndpointAddr                 string         `json:"endpoint_addr"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	CodeValidityDuration         timex.Duration `json:"code_validity_duration"`
	MaxCodeAttempts              int            `json:"max_code_attempts"`
	AdminEmails                  []string       `json:"admin_emails"`
	AutoActivate                 *bool          `json:"auto_activate"`
	LogLevel                     string         `json:"log_level"`
}

// parseJson overlays config with the JSON file named by -c or -config.
// Without either flag nothing is loaded; read or unmarshal errors panic.
// Absent or zero fields keep the current value.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration > 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.CodeValidityDuration.Duration > 0 {
		config.CodeValidityDuration = c.CodeValidityDuration.Duration
	}
	if c.MaxCodeAttempts > 0 {
		config.MaxCodeAttempts = c.MaxCodeAttempts
	}
	if len(c.AdminEmails) > 0 {
		config.AdminEmails = c.AdminEmails
	}
	if c.AutoActivate != nil {
		config.AutoActivate = *c.AutoActivate
	}
	if c.LogLevel != "" {
		config.LogLevel = c.LogLevel
	}
}
