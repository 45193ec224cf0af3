package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/killallgit/eafkit/api"
	"github.com/killallgit/eafkit/api/types"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the corpus search API server",
		Long: `Start the read-only HTTP API over the corpus index with the configured
settings.

The server exposes health and version endpoints plus document listing
and row search under /api/v1.

Example:
  eafkit serve
  eafkit serve --port 9090
  eafkit serve --host 0.0.0.0 --port 8080 --db /data/corpus.db`,
		Args: cobra.NoArgs,
		RunE: runServer,
	}

	// Server flags
	cmd.Flags().String("host", "", "server host (overrides config)")
	cmd.Flags().Int("port", 0, "server port (overrides config)")
	addDBFlag(cmd)
	return cmd
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg := *appConfig
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Server.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Server.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if !logrus.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDatabase(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	server := api.NewServer(&cfg)
	server.SetDependencies(&types.Dependencies{
		DB:      db,
		Corpus:  newCorpusService(db),
		Version: Version,
	})
	if err := server.Initialize(); err != nil {
		return err
	}

	// Channel to listen for interrupt signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	// Channel to receive server errors
	serverErr := make(chan error, 1)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	logrus.WithField("addr", server.Addr()).Info("server is ready to handle requests")
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", server.Addr())

	var runErr error
	select {
	case <-stop:
		logrus.Info("shutting down server")
	case <-cmd.Context().Done():
		logrus.Info("context cancelled, shutting down server")
	case runErr = <-serverErr:
		logrus.WithError(runErr).Error("server error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("server forced to shutdown")
		return err
	}

	logrus.Info("server gracefully stopped")
	return runErr
}
