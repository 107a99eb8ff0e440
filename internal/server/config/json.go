package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/sessioncore/internal/flagx"
	"github.com/dmitrijs2005/sessioncore/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON
// configuration files. It uses timex.Duration so interval fields accept
// both strings such as "15m" and integer nanoseconds. After unmarshalling,
// non-zero fields are copied into the runtime Config.
type JsonConfig struct {
	DatabaseDSN      string           `json:"database_dsn"`
	SigningKeys      []JsonSigningKey `json:"signing_keys"`
	AccessTokenTTL   timex.Duration   `json:"access_token_ttl"`
	RefreshTokenTTL  timex.Duration   `json:"refresh_token_ttl"`
	MaxFailures      int              `json:"max_failures"`
	AttemptWindow    timex.Duration   `json:"attempt_window"`
	LockoutBase      timex.Duration   `json:"lockout_base"`
	LockoutMax       timex.Duration   `json:"lockout_max"`
	EscalationWindow timex.Duration   `json:"escalation_window"`
}

// JsonSigningKey mirrors SigningKey for JSON files, newest first.
type JsonSigningKey struct {
	ID     string `json:"id"`
	Secret string `json:"secret"`
}

// parseJson loads configuration values from the JSON file selected by the
// -c or -config flags into the provided Config. When no file is given, it
// does nothing. An unreadable or invalid file panics: a broken explicit
// config is a startup fault, not something to silently skip.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		panic(err)
	}

	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if len(c.SigningKeys) > 0 {
		keys := make([]SigningKey, 0, len(c.SigningKeys))
		for _, k := range c.SigningKeys {
			keys = append(keys, SigningKey{ID: k.ID, Secret: k.Secret})
		}
		config.SigningKeys = keys
	}
	if c.AccessTokenTTL.Duration > 0 {
		config.AccessTokenTTL = c.AccessTokenTTL.Duration
	}
	if c.RefreshTokenTTL.Duration > 0 {
		config.RefreshTokenTTL = c.RefreshTokenTTL.Duration
	}
	if c.MaxFailures > 0 {
		config.MaxFailures = c.MaxFailures
	}
	if c.AttemptWindow.Duration > 0 {
		config.AttemptWindow = c.AttemptWindow.Duration
	}
	if c.LockoutBase.Duration > 0 {
		config.LockoutBase = c.LockoutBase.Duration
	}
	if c.LockoutMax.Duration > 0 {
		config.LockoutMax = c.LockoutMax.Duration
	}
	if c.EscalationWindow.Duration > 0 {
		config.EscalationWindow = c.EscalationWindow.Duration
	}
}
