package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/existflow/taskr/internal/logger"
	"github.com/existflow/taskr/server"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the local JSON API",
	Long: `Serve tasks, history, trash and the calendar over HTTP.

Requests must carry 'Authorization: Bearer <token>' once a token has been
created with 'taskr token'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.ServerAddr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(a)
		a.Start()

		srv := server.New(a, cfg.APITokenHash)
		if cfg.APITokenHash == "" {
			fmt.Println("warning: no API token set, run 'taskr token' to require one")
		}
		fmt.Printf("Listening on %s\n", addr)

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start(addr) }()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info("Shutting down API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Create a new API token",
	Long:  "Create a new API token. The previous token stops working.",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, hash, err := server.GenerateToken()
		if err != nil {
			return err
		}
		cfg.APITokenHash = hash
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		logger.Info("API token rotated")
		fmt.Println("API token (shown once):")
		fmt.Println(token)
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
}
