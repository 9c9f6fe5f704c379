package cli

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lumeforge/venued/internal/auth"
	"github.com/lumeforge/venued/internal/config"
	"github.com/lumeforge/venued/internal/core/state"
	"github.com/lumeforge/venued/internal/core/token"
	"github.com/lumeforge/venued/internal/core/tx"
	"github.com/lumeforge/venued/internal/events"
	"github.com/lumeforge/venued/internal/server"
	"github.com/lumeforge/venued/internal/storage/kv"
	"github.com/lumeforge/venued/internal/storage/tradeindex"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the venued server",
	Long: `Start the venued server which provides:
- HTTP JSON-RPC API for submissions and queries
- WebSocket event feed at /events
- Optional relational trade index`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// Running without a subcommand starts the server.
	rootCmd.RunE = runServer
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := kv.Open(kv.Options{
		Backend:    cfg.Database.Backend,
		Path:       cfg.Database.Path,
		Compressor: cfg.Database.Compressor,
		CacheSize:  cfg.Database.CacheSize,
	})
	if err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}
	stateStore := state.NewStore(store)
	defer stateStore.Close()

	publisher := events.NewPublisher()
	hub := events.NewHub(publisher)

	var index tradeindex.Repository
	if cfg.TradeIndex.Enabled {
		index, err = openTradeIndex(ctx, cfg.TradeIndex)
		if err != nil {
			return fmt.Errorf("failed to open trade index: %w", err)
		}
		defer index.Close()

		indexer := tradeindex.NewIndexer(index, func(err error) {
			log.Printf("trade index insert failed: %v", err)
		})
		publisher.Subscribe(indexer.Hook())
	}

	engine := tx.NewEngine(stateStore, auth.AllowAll{}, token.NewStateLedger,
		tx.WithEvents(publisher),
		tx.WithConfig(tx.EngineConfig{
			AMMFeeNum:       cfg.Fees.AMMFeeNum,
			AMMFeeDen:       cfg.Fees.AMMFeeDen,
			CurveSellFeeDiv: cfg.Fees.CurveSellFeeDiv,
		}))

	srv := server.New(server.Config{
		Addr:              cfg.Server.Addr,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		RequireSignatures: cfg.Server.RequireSignatures,
	}, engine, index, hub)

	if !quiet {
		fmt.Printf("venued listening on %s\n", cfg.Server.Addr)
		fmt.Printf("  JSON-RPC:  http://localhost%s/\n", cfg.Server.Addr)
		fmt.Printf("  Events:    ws://localhost%s/events\n", cfg.Server.Addr)
	}

	return srv.Run(ctx)
}

func loadConfig() (*config.Config, error) {
	if configFile == "" {
		return config.Default(), nil
	}
	return config.Load(configFile)
}

func openTradeIndex(ctx context.Context, cfg config.TradeIndexConfig) (tradeindex.Repository, error) {
	switch cfg.Driver {
	case "sqlite":
		return tradeindex.OpenSQLite(ctx, cfg.DSN)
	case "postgres":
		return tradeindex.OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown trade index driver %q", cfg.Driver)
	}
}
