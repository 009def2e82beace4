package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Simplici0/cotizador/internal/config"
	"github.com/Simplici0/cotizador/internal/db"
	"github.com/Simplici0/cotizador/internal/importer"
	"github.com/Simplici0/cotizador/internal/migrations"
	"github.com/Simplici0/cotizador/internal/pricing"
	"github.com/Simplici0/cotizador/internal/rates"
	"github.com/Simplici0/cotizador/internal/seed"
	"github.com/Simplici0/cotizador/internal/store"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "cotizador",
	Short: "Quotation pricing service",
	Long: `Prices multi-currency quotes with margin, financing and prorated freight,
and keeps clients, suppliers, products, quotes and purchase orders in SQLite.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (environment variables take precedence)")
	rootCmd.AddCommand(serveCmd(), migrateCmd(), seedCmd(), importCmd(), ratesCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() config.Config {
	cfg, err := config.LoadFile(cfgFile)
	if err != nil {
		log.Warnf("load config: %v", err)
	}
	config.InitLog(cfg.Log.Dir, "", cfg.Log.Level)
	return cfg
}

func openDatabase(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

func newRateProvider(cfg config.Config, st *store.Store) *rates.Provider {
	return rates.NewProvider(rates.NewClient(cfg.Rates.URL, cfg.Rates.Timeout), st, cfg.Rates.MaxAge)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			ctx := cmd.Context()

			database, err := openDatabase(ctx, cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			if cfg.IsDev() {
				if err := migrations.Up(database); err != nil {
					return fmt.Errorf("failed to run database migrations: %w", err)
				}
				if _, err := seed.Run(ctx, database, seed.Config{}); err != nil {
					return fmt.Errorf("failed to seed database: %w", err)
				}
			}

			srv := newServer(cfg, database)
			httpServer := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           srv.routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", httpServer.Addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", httpServer.Addr, err)
			}
			log.Infof("listening on %s", ln.Addr())
			return runServer(ctx, httpServer, ln)
		},
	}
}

const shutdownTimeout = 10 * time.Second

// runServer serves on ln until ctx is done, then returns only after in-flight
// requests have drained or shutdownTimeout has passed.
func runServer(ctx context.Context, srv *http.Server, ln net.Listener) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			database, err := openDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := migrations.Up(database); err != nil {
				return fmt.Errorf("failed to run database migrations: %w", err)
			}
			version, err := migrations.Version(database)
			if err != nil {
				return err
			}
			log.Infof("database at schema version %d", version)
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert default settings, exchange rates and counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			database, err := openDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			stats, err := seed.Run(cmd.Context(), database, seed.Config{})
			if err != nil {
				return err
			}
			log.Infof("seed completed: inserts=%d updates=%d", stats.Inserts, stats.Updates)
			return nil
		},
	}
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Load suppliers and products from a purchasing spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			database, err := openDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			res, err := importer.Parse(f)
			if err != nil {
				return err
			}
			for _, e := range res.Errors {
				log.Warnf("fila %d, %s: %s", e.Row, e.Field, e.Message)
			}
			applied, err := importer.Apply(cmd.Context(), store.New(database), res)
			if err != nil {
				return err
			}
			log.Infof("import completed: rows=%d valid=%d suppliers_created=%d suppliers_updated=%d products=%d",
				res.TotalRows, res.ValidRows, applied.SuppliersCreated, applied.SuppliersUpdated, applied.Products)
			return nil
		},
	}
}

func ratesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rates",
		Short: "Refresh and print the exchange rate table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			database, err := openDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			provider := newRateProvider(cfg, store.New(database))
			table, err := provider.Refresh(cmd.Context())
			if err != nil {
				log.Warnf("refresh failed, showing fallback: %v", err)
				table = provider.Table(cmd.Context())
			}
			for _, cur := range pricing.Currencies {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.2f\n", cur, table.Rates.Rate(cur))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fuente\t%s\n", table.Source)
			return nil
		},
	}
}
