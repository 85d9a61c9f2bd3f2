package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	"voting-ledger/internal/app"
	"voting-ledger/internal/config"
	"voting-ledger/internal/metrics"
	httpport "voting-ledger/internal/ports/http"
	"voting-ledger/internal/ports/http/middleware/auth"
	"voting-ledger/internal/repository/badgerdb"
	"voting-ledger/internal/repository/mongodb"
	"voting-ledger/internal/voting"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Serve the voting ledger over a REST API",
	Long: `Serves a local voting ledger over HTTP. Callers authenticate with an HS256 JWT
whose subject is their address. The ledger is kept in the configured store
(badger, mongodb or memory); a new ledger is owned by OWNER_ADDR.`,
	RunE: runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().String("port", "", "port to listen on")
	apiCmd.Flags().String("store", "", "ledger store: badger, mongodb or memory")
	apiCmd.Flags().String("data-dir", "", "badger data directory")
	apiCmd.Flags().String("owner", "", "owner address of a newly created ledger")

	bindFlag(apiCmd.Flags().Lookup("port"), config.KeyPort)
	bindFlag(apiCmd.Flags().Lookup("store"), config.KeyStore)
	bindFlag(apiCmd.Flags().Lookup("data-dir"), config.KeyDataDir)
	bindFlag(apiCmd.Flags().Lookup("owner"), config.KeyOwnerAddr)
}

func runAPI(cmd *cobra.Command, args []string) error {
	secret := config.GetJWTSecret()
	if len(secret) < 32 {
		return errors.New("JWT_SECRET must be set to at least 32 characters")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ledger, err := voting.NewLedger(ctx, logger, store, config.GetOwnerAddr(),
		voting.WithCollector(metrics.NewVotingCollector(registry)))
	if err != nil {
		return err
	}

	validator := auth.NewTokenValidator(logger, auth.JwtTokenParams{
		Issuer: config.GetJWTIssuer(),
		Secret: []byte(secret),
	})
	ser := httpport.NewServer(logger, app.NewApp(logger, ledger), config.GetPort(), validator,
		httpport.WithMetrics(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
		httpport.WithRequestTimeout(config.GetRequestTimeout()),
		httpport.WithAllowedOrigins(config.GetCorsOrigins()),
	)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- ser.Run()
	}()

	logger.Info("application started", zap.String("store", config.GetStoreType()), zap.String("owner", ledger.Owner()))

	select {
	case err := <-serverErr:
		if err != nil {
			return errors.New("failed to run the server: " + err.Error())
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := ser.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shut the server down: " + err.Error())
		}
	}

	logger.Info("application finished")
	return nil
}

func openStore() (voting.Store, func(), error) {
	switch storeType := config.GetStoreType(); storeType {
	case config.StoreBadger:
		store, err := badgerdb.Open(logger, config.GetDataDir())
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Error("failed to close the badger database: " + err.Error())
			}
		}, nil

	case config.StoreMongoDB:
		repo, err := mongodb.NewConnection(logger, config.GetDbConnectionURI(), config.GetDatabaseName())
		if err != nil {
			return nil, nil, errors.New("failed to connect to the database: " + err.Error())
		}
		return repo, repo.Disconnect, nil

	case config.StoreMemory:
		logger.Warn("using the in-memory store, the ledger will be lost on exit")
		return voting.NewMemoryStore(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store %q, expected %s, %s or %s", storeType, config.StoreBadger, config.StoreMongoDB, config.StoreMemory)
	}
}
