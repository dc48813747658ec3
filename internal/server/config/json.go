package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/linkup/internal/flagx"
	"github.com/dmitrijs2005/linkup/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations use
// timex.Duration so they read as "15m" or "720h". Absent fields leave the
// current value untouched.
type JsonConfig struct {
	HTTPAddr                 string         `json:"http_addr"`
	Store                    string         `json:"store"`
	DatabaseDSN              string         `json:"database_dsn"`
	MongoURI                 string         `json:"mongo_uri"`
	MongoDatabase            string         `json:"mongo_database"`
	JWTAccessSecret          string         `json:"jwt_access_secret"`
	JWTRefreshSecret         string         `json:"jwt_refresh_secret"`
	AccessTokenTTL           timex.Duration `json:"access_token_ttl"`
	RefreshTokenTTL          timex.Duration `json:"refresh_token_ttl"`
	EncryptionKey            string         `json:"encryption_key"`
	OTPLength                int            `json:"otp_length"`
	OTPExpiry                timex.Duration `json:"otp_expiry"`
	PasswordHashCost         int            `json:"password_hash_cost"`
	OTPHashCost              int            `json:"otp_hash_cost"`
	SessionHashCost          int            `json:"session_hash_cost"`
	LedgerNetwork            string         `json:"ledger_network"`
	LedgerKeyType            string         `json:"ledger_key_type"`
	LedgerOperatorID         string         `json:"ledger_operator_id"`
	LedgerOperatorKey        string         `json:"ledger_operator_key"`
	LedgerInitialBalanceHbar float64        `json:"ledger_initial_balance_hbar"`
	LedgerContractID         string         `json:"ledger_contract_id"`
	SMTPHost                 string         `json:"smtp_host"`
	SMTPPort                 int            `json:"smtp_port"`
	SMTPUser                 string         `json:"smtp_user"`
	SMTPPassword             string         `json:"smtp_password"`
	EmailFrom                string         `json:"email_from"`
	OTPRequestRate           float64        `json:"otp_request_rate"`
	OTPRequestBurst          int            `json:"otp_request_burst"`
	JanitorInterval          timex.Duration `json:"janitor_interval"`
	ShutdownTimeout          timex.Duration `json:"shutdown_timeout"`
	LogLevel                 string         `json:"log_level"`
	LogFormat                string         `json:"log_format"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setFloat(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}

// parseJson overlays the file named by -c/-config onto config. Without the
// flag nothing is loaded.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.Store, c.Store)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.MongoURI, c.MongoURI)
	setString(&config.MongoDatabase, c.MongoDatabase)
	setString(&config.JWTAccessSecret, c.JWTAccessSecret)
	setString(&config.JWTRefreshSecret, c.JWTRefreshSecret)
	setString(&config.EncryptionKey, c.EncryptionKey)
	setString(&config.LedgerNetwork, c.LedgerNetwork)
	setString(&config.LedgerKeyType, c.LedgerKeyType)
	setString(&config.LedgerOperatorID, c.LedgerOperatorID)
	setString(&config.LedgerOperatorKey, c.LedgerOperatorKey)
	setString(&config.LedgerContractID, c.LedgerContractID)
	setString(&config.SMTPHost, c.SMTPHost)
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.EmailFrom, c.EmailFrom)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)

	setInt(&config.OTPLength, c.OTPLength)
	setInt(&config.PasswordHashCost, c.PasswordHashCost)
	setInt(&config.OTPHashCost, c.OTPHashCost)
	setInt(&config.SessionHashCost, c.SessionHashCost)
	setInt(&config.SMTPPort, c.SMTPPort)
	setInt(&config.OTPRequestBurst, c.OTPRequestBurst)

	setFloat(&config.LedgerInitialBalanceHbar, c.LedgerInitialBalanceHbar)
	setFloat(&config.OTPRequestRate, c.OTPRequestRate)

	durations := []struct {
		dst *time.Duration
		v   timex.Duration
	}{
		{&config.AccessTokenTTL, c.AccessTokenTTL},
		{&config.RefreshTokenTTL, c.RefreshTokenTTL},
		{&config.OTPExpiry, c.OTPExpiry},
		{&config.JanitorInterval, c.JanitorInterval},
		{&config.ShutdownTimeout, c.ShutdownTimeout},
	}
	for _, d := range durations {
		if d.v.Duration != 0 {
			*d.dst = d.v.Duration
		}
	}

	return nil
}
