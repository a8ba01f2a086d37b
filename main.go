package main

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/danielhkuo/chainvote/cliparse"
	"github.com/danielhkuo/chainvote/db"
	"github.com/danielhkuo/chainvote/ledger"
	"github.com/danielhkuo/chainvote/middleware"
	"github.com/danielhkuo/chainvote/router"
	"github.com/danielhkuo/chainvote/store"
	"github.com/danielhkuo/chainvote/voting"
)

const (
	dialTimeout     = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	var err error

	// A missing .env file is fine; the environment may already be set
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg))

	// Connect to the database
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	gw, err := openLedger(cfg, dbConn)
	if err != nil {
		slog.Error("ledger setup failed", "mode", cfg.LedgerMode, "error", err)
		os.Exit(1)
	}
	if c, ok := gw.(io.Closer); ok {
		defer c.Close()
	}

	if cfg.ReconcileOnStart {
		rec := voting.NewReconciler(store.NewProposalStore(dbConn), gw, cfg.ContractAddress)
		summary, err := rec.ReconcileAll(context.Background())
		if err != nil {
			slog.Error("startup reconciliation failed", "error", err)
		} else {
			slog.Info("Vote counts reconciled", "checked", summary.Checked, "corrected", len(summary.Corrected))
		}
	}

	// Create router
	mux := router.NewRouter(dbConn, gw, cfg)

	// Create server
	server := http.Server{
		Handler: middleware.CORS(cfg.FrontendURL, mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		server.Shutdown(ctx)
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "ledger", cfg.LedgerMode, "contract", cfg.ContractAddress)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

// newLogger writes JSON in production and text everywhere else
func newLogger(cfg cliparse.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// openLedger connects the configured gateway. The simulated ledger is rebuilt
// from stored proposals so earlier voters stay rejected across restarts.
func openLedger(cfg cliparse.Config, conn *sql.DB) (ledger.Gateway, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	switch cfg.LedgerMode {
	case cliparse.LedgerEthereum:
		eth, err := ledger.DialEthereum(ctx, ledger.EthereumConfig{
			RPCURL:          cfg.LedgerRPCURL,
			ContractAddress: cfg.ContractAddress,
			PrivateKey:      cfg.LedgerPrivateKey,
			ChainID:         cfg.LedgerChainID,
		})
		if err != nil {
			return nil, err
		}
		return eth, nil
	default:
		sim := ledger.NewSimulated(cfg.ContractAddress)
		rec := voting.NewReconciler(store.NewProposalStore(conn), sim, cfg.ContractAddress)
		n, err := rec.RestoreSimulated(ctx, sim)
		if err != nil {
			return nil, err
		}
		slog.Info("Simulated ledger restored", "proposals", n)
		return sim, nil
	}
}
