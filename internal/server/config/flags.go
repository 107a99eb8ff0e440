package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/sessioncore/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN
//	-k string   signing keys as id:secret[,id:secret...], newest first
//	-t int      access token TTL, minutes
//	-r int      refresh token TTL, minutes
//	-f int      consecutive failures before lockout
//	-w int      attempt window, seconds
//	-l int      base lockout duration, seconds
//	-m int      maximum lockout duration, seconds
//	-e int      lockout escalation window, minutes
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with flags owned by the hosting
// application.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-k", "-t", "-r", "-f", "-w", "-l", "-m", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	keys := fs.String("k", "", "signing keys as id:secret[,id:secret...], newest first")

	accessTTL := fs.Int("t", int(config.AccessTokenTTL.Minutes()), "access token TTL (minutes)")
	refreshTTL := fs.Int("r", int(config.RefreshTokenTTL.Minutes()), "refresh token TTL (minutes)")
	fs.IntVar(&config.MaxFailures, "f", config.MaxFailures, "consecutive failures before lockout")
	attemptWindow := fs.Int("w", int(config.AttemptWindow.Seconds()), "attempt window (seconds)")
	lockoutBase := fs.Int("l", int(config.LockoutBase.Seconds()), "base lockout duration (seconds)")
	lockoutMax := fs.Int("m", int(config.LockoutMax.Seconds()), "maximum lockout duration (seconds)")
	escalation := fs.Int("e", int(config.EscalationWindow.Minutes()), "lockout escalation window (minutes)")

	if err := fs.Parse(args); err != nil {
		return
	}

	config.AccessTokenTTL = time.Duration(*accessTTL) * time.Minute
	config.RefreshTokenTTL = time.Duration(*refreshTTL) * time.Minute
	config.AttemptWindow = time.Duration(*attemptWindow) * time.Second
	config.LockoutBase = time.Duration(*lockoutBase) * time.Second
	config.LockoutMax = time.Duration(*lockoutMax) * time.Second
	config.EscalationWindow = time.Duration(*escalation) * time.Minute

	if *keys != "" {
		config.SigningKeys = parseSigningKeys(*keys)
	}
}

// parseSigningKeys parses "id:secret,id2:secret2" into an ordered key
// list, skipping malformed entries.
func parseSigningKeys(s string) []SigningKey {
	var keys []SigningKey
	for _, part := range strings.Split(s, ",") {
		id, secret, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok || id == "" || secret == "" {
			continue
		}
		keys = append(keys, SigningKey{ID: id, Secret: secret})
	}
	return keys
}
