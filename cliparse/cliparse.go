package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/danielhkuo/chainvote/models"
)

// Ledger modes
const (
	LedgerSimulated = "simulated"
	LedgerEthereum  = "ethereum"
)

// Deadline policies
const (
	DeadlineIgnore  = "ignore"
	DeadlineEnforce = "enforce"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string

	LedgerMode       string
	LedgerRPCURL     string
	ContractAddress  string
	LedgerPrivateKey string
	LedgerChainID    int64

	DeadlinePolicy   string
	FrontendURL      string
	AdminKey         string
	IPHashSalt       string
	AppEnv           string
	LogLevel         string
	ReconcileOnStart bool
}

// IsProduction reports whether error details should be hidden from clients
func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// ParseFlags validates flags and falls back to environment variables
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("chainvote", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Ledger
	fs.StringVar(&cfg.LedgerMode, "ledger", "", "Ledger mode (simulated or ethereum)")
	fs.StringVar(&cfg.LedgerRPCURL, "rpc", "", "Ledger RPC URL")
	fs.StringVar(&cfg.ContractAddress, "contract", "", "Voting contract address")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AdminKey, "admin-key", "", "Admin key (prefer env)")
	fs.StringVar(&cfg.IPHashSalt, "ip-salt", "", "IP hash salt (prefer env)")

	fs.StringVar(&cfg.DeadlinePolicy, "deadline", "", "Deadline policy (ignore or enforce)")
	fs.BoolVar(&cfg.ReconcileOnStart, "reconcile", false, "Reconcile vote counts on startup")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 5000
		}
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	cfg.DatabaseType = firstNonEmpty(cfg.DatabaseType, os.Getenv("DATABASE_TYPE"), "sqlite")
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	cfg.LedgerMode = strings.ToLower(firstNonEmpty(cfg.LedgerMode, os.Getenv("LEDGER_MODE"), LedgerSimulated))
	cfg.LedgerRPCURL = firstNonEmpty(cfg.LedgerRPCURL, os.Getenv("LEDGER_RPC_URL"))
	cfg.ContractAddress = firstNonEmpty(cfg.ContractAddress, os.Getenv("CONTRACT_ADDRESS"), models.DefaultContractAddress)
	cfg.LedgerPrivateKey = os.Getenv("LEDGER_PRIVATE_KEY")

	switch cfg.LedgerMode {
	case LedgerSimulated:
	case LedgerEthereum:
		if cfg.LedgerRPCURL == "" {
			return Config{}, errors.New("LEDGER_RPC_URL required in ethereum mode")
		}
		if cfg.LedgerPrivateKey == "" {
			return Config{}, errors.New("LEDGER_PRIVATE_KEY required in ethereum mode")
		}
		if cfg.ContractAddress == models.DefaultContractAddress {
			return Config{}, errors.New("CONTRACT_ADDRESS required in ethereum mode")
		}
		if idStr := os.Getenv("LEDGER_CHAIN_ID"); idStr != "" {
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil || id <= 0 {
				return Config{}, errors.New("invalid LEDGER_CHAIN_ID env variable")
			}
			cfg.LedgerChainID = id
		}
	default:
		return Config{}, fmt.Errorf("unsupported ledger mode %q", cfg.LedgerMode)
	}

	cfg.DeadlinePolicy = strings.ToLower(firstNonEmpty(cfg.DeadlinePolicy, os.Getenv("DEADLINE_POLICY"), DeadlineIgnore))
	if cfg.DeadlinePolicy != DeadlineIgnore && cfg.DeadlinePolicy != DeadlineEnforce {
		return Config{}, fmt.Errorf("unsupported deadline policy %q", cfg.DeadlinePolicy)
	}

	cfg.FrontendURL = firstNonEmpty(os.Getenv("FRONTEND_URL"), "http://localhost:3000")
	cfg.AdminKey = firstNonEmpty(cfg.AdminKey, os.Getenv("ADMIN_KEY"))
	cfg.IPHashSalt = firstNonEmpty(cfg.IPHashSalt, os.Getenv("IP_HASH_SALT"))
	cfg.AppEnv = firstNonEmpty(os.Getenv("APP_ENV"), "development")
	cfg.LogLevel = firstNonEmpty(os.Getenv("LOG_LEVEL"), "info")

	if !cfg.ReconcileOnStart {
		if v := os.Getenv("RECONCILE_ON_START"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return Config{}, errors.New("invalid RECONCILE_ON_START env variable")
			}
			cfg.ReconcileOnStart = b
		}
	}

	// Salt is required outside development so hashes are not guessable
	if cfg.IPHashSalt == "" {
		if cfg.IsProduction() {
			return Config{}, errors.New("IP_HASH_SALT required in production")
		}
		cfg.IPHashSalt = "dev-ip-salt"
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
