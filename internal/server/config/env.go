package config

import (
	"fmt"
	"strconv"
	"time"
)

const envPrefix = "LINKUP_"

// parseEnv overlays LINKUP_* variables onto config. Durations accept Go
// duration syntax ("10m").
func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"HTTP_ADDR":           &config.HTTPAddr,
		"STORE":               &config.Store,
		"DATABASE_DSN":        &config.DatabaseDSN,
		"MONGO_URI":           &config.MongoURI,
		"MONGO_DATABASE":      &config.MongoDatabase,
		"JWT_ACCESS_SECRET":   &config.JWTAccessSecret,
		"JWT_REFRESH_SECRET":  &config.JWTRefreshSecret,
		"ENCRYPTION_KEY":      &config.EncryptionKey,
		"LEDGER_NETWORK":      &config.LedgerNetwork,
		"LEDGER_KEY_TYPE":     &config.LedgerKeyType,
		"LEDGER_OPERATOR_ID":  &config.LedgerOperatorID,
		"LEDGER_OPERATOR_KEY": &config.LedgerOperatorKey,
		"LEDGER_CONTRACT_ID":  &config.LedgerContractID,
		"SMTP_HOST":           &config.SMTPHost,
		"SMTP_USER":           &config.SMTPUser,
		"SMTP_PASSWORD":       &config.SMTPPassword,
		"EMAIL_FROM":          &config.EmailFrom,
		"LOG_LEVEL":           &config.LogLevel,
		"LOG_FORMAT":          &config.LogFormat,
	}
	ints := map[string]*int{
		"OTP_LENGTH":         &config.OTPLength,
		"PASSWORD_HASH_COST": &config.PasswordHashCost,
		"OTP_HASH_COST":      &config.OTPHashCost,
		"SESSION_HASH_COST":  &config.SessionHashCost,
		"SMTP_PORT":          &config.SMTPPort,
		"OTP_REQUEST_BURST":  &config.OTPRequestBurst,
	}
	floats := map[string]*float64{
		"LEDGER_INITIAL_BALANCE_HBAR": &config.LedgerInitialBalanceHbar,
		"OTP_REQUEST_RATE":            &config.OTPRequestRate,
	}
	durations := map[string]*time.Duration{
		"ACCESS_TOKEN_TTL":  &config.AccessTokenTTL,
		"REFRESH_TOKEN_TTL": &config.RefreshTokenTTL,
		"OTP_EXPIRY":        &config.OTPExpiry,
		"JANITOR_INTERVAL":  &config.JanitorInterval,
		"SHUTDOWN_TIMEOUT":  &config.ShutdownTimeout,
	}

	for name, dst := range strs {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	for name, dst := range ints {
		v, ok := lookup(envPrefix + name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = n
	}
	for name, dst := range floats {
		v, ok := lookup(envPrefix + name)
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = f
	}
	for name, dst := range durations {
		v, ok := lookup(envPrefix + name)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = d
	}

	return nil
}
