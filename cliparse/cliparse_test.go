// cliparse/cliparse_test.go
package cliparse

import (
	"testing"
)

// clearEnv blanks every variable ParseFlags reads so host settings don't leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "DATABASE_URL", "DATABASE_TYPE", "LEDGER_MODE", "LEDGER_RPC_URL",
		"CONTRACT_ADDRESS", "LEDGER_PRIVATE_KEY", "LEDGER_CHAIN_ID", "DEADLINE_POLICY",
		"FRONTEND_URL", "ADMIN_KEY", "IP_HASH_SALT", "APP_ENV", "LOG_LEVEL", "RECONCILE_ON_START",
	} {
		t.Setenv(k, "")
	}
}

func TestParseFlags_EnvVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://test")
	t.Setenv("DATABASE_TYPE", "postgres")
	t.Setenv("ADMIN_KEY", "secret")
	t.Setenv("DEADLINE_POLICY", "ENFORCE")
	t.Setenv("RECONCILE_ON_START", "true")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "postgres" {
		t.Errorf("expected postgres, got %s", cfg.DatabaseType)
	}
	if cfg.AdminKey != "secret" {
		t.Errorf("expected admin key from env, got %q", cfg.AdminKey)
	}
	if cfg.DeadlinePolicy != DeadlineEnforce {
		t.Errorf("expected enforce policy, got %s", cfg.DeadlinePolicy)
	}
	if !cfg.ReconcileOnStart {
		t.Error("expected ReconcileOnStart from env")
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := ParseFlags([]string{"-d", "file::memory:"})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 5000 {
		t.Errorf("expected default port 5000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected sqlite default, got %s", cfg.DatabaseType)
	}
	if cfg.LedgerMode != LedgerSimulated {
		t.Errorf("expected simulated ledger, got %s", cfg.LedgerMode)
	}
	if cfg.DeadlinePolicy != DeadlineIgnore {
		t.Errorf("expected ignore policy, got %s", cfg.DeadlinePolicy)
	}
	if cfg.ContractAddress != "0x1234567890123456789012345678901234567890" {
		t.Errorf("unexpected default contract address %s", cfg.ContractAddress)
	}
	if cfg.FrontendURL != "http://localhost:3000" {
		t.Errorf("unexpected default frontend URL %s", cfg.FrontendURL)
	}
	if cfg.IPHashSalt == "" {
		t.Error("expected development IP salt")
	}
	if cfg.IsProduction() {
		t.Error("expected development environment by default")
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:test.db", "-admin-key", "k1", "-ip-salt", "s1"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.AdminKey != "k1" || cfg.IPHashSalt != "s1" {
		t.Errorf("CLI secrets not applied: %+v", cfg)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{"missing database url", nil, []string{}},
		{"bad port", map[string]string{"PORT": "abc"}, []string{"-d", "x"}},
		{"bad database type", map[string]string{"DATABASE_TYPE": "mongo"}, []string{"-d", "x"}},
		{"bad ledger mode", map[string]string{"LEDGER_MODE": "bitcoin"}, []string{"-d", "x"}},
		{"ethereum without rpc", map[string]string{"LEDGER_MODE": "ethereum"}, []string{"-d", "x"}},
		{"ethereum without key", map[string]string{
			"LEDGER_MODE": "ethereum", "LEDGER_RPC_URL": "http://localhost:8545",
		}, []string{"-d", "x"}},
		{"ethereum without contract", map[string]string{
			"LEDGER_MODE": "ethereum", "LEDGER_RPC_URL": "http://localhost:8545", "LEDGER_PRIVATE_KEY": "ab",
		}, []string{"-d", "x"}},
		{"bad chain id", map[string]string{
			"LEDGER_MODE": "ethereum", "LEDGER_RPC_URL": "http://localhost:8545", "LEDGER_PRIVATE_KEY": "ab",
			"CONTRACT_ADDRESS": "0x00000000000000000000000000000000000000aa", "LEDGER_CHAIN_ID": "-1",
		}, []string{"-d", "x"}},
		{"bad deadline policy", map[string]string{"DEADLINE_POLICY": "sometimes"}, []string{"-d", "x"}},
		{"bad reconcile flag", map[string]string{"RECONCILE_ON_START": "maybe"}, []string{"-d", "x"}},
		{"production without salt", map[string]string{"APP_ENV": "production"}, []string{"-d", "x"}},
		{"unknown flag", nil, []string{"-nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := ParseFlags(tt.args); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestParseFlags_EthereumMode(t *testing.T) {
	clearEnv(t)
	t.Setenv("LEDGER_MODE", "ethereum")
	t.Setenv("LEDGER_RPC_URL", "http://localhost:8545")
	t.Setenv("LEDGER_PRIVATE_KEY", "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	t.Setenv("CONTRACT_ADDRESS", "0x5FbDB2315678afecb367f032d93F642f64180aa3")
	t.Setenv("LEDGER_CHAIN_ID", "31337")

	cfg, err := ParseFlags([]string{"-d", "x"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LedgerMode != LedgerEthereum {
		t.Errorf("expected ethereum mode, got %s", cfg.LedgerMode)
	}
	if cfg.LedgerChainID != 31337 {
		t.Errorf("expected chain id 31337, got %d", cfg.LedgerChainID)
	}
}
