package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/user/relay-service/internal/delivery/http/handler"
	"github.com/user/relay-service/internal/delivery/http/router"
	"go.uber.org/zap"
)

func serveCMD() *cobra.Command {
	var port string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if port == "" {
				port = a.cfg.ServerPort
			}

			pingers := map[string]handler.Pinger{"redis": a.store}
			if a.db != nil {
				pingers["postgres"] = a.db
			}
			apiHandler := handler.NewHandler(a.extractor, a.saver, a.sessions, a.publishLog, pingers, a.logger)

			server := &http.Server{
				Addr:         ":" + port,
				Handler:      router.New(apiHandler, a.logger),
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 90 * time.Second,
				IdleTimeout:  120 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()
			a.logger.Info("server started", zap.String("port", port))

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return err
			case <-quit:
			}

			a.logger.Info("shutting down server...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return err
			}
			a.logger.Info("server exiting")
			return nil
		},
	}
	serve.Flags().StringVar(&port, "port", "", "listen port (default SERVER_PORT)")
	return serve
}
