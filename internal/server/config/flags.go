package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/linkup/internal/flagx"
)

// parseFlags applies the command-line flags handled by the server.
//
//	-a string    HTTP bind address (":8080")
//	-store       memory | postgres | mongo
//	-d string    PostgreSQL DSN
//	-m string    MongoDB URI
//	-network     mainnet | testnet | previewnet
//	-key-type    ED25519 | ECDSA
//	-log-level   debug | info | warn | error
//
// Secrets are deliberately not accepted as flags; use the config file or
// the environment.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-store", "-d", "-m", "-network", "-key-type", "-log-level"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.Store, "store", config.Store, "storage backend")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.MongoURI, "m", config.MongoURI, "mongodb URI")
	fs.StringVar(&config.LedgerNetwork, "network", config.LedgerNetwork, "ledger network")
	fs.StringVar(&config.LedgerKeyType, "key-type", config.LedgerKeyType, "ledger key type")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")

	return fs.Parse(args)
}
