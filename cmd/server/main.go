// Command server is the Ramadan 2026 Doha reminder server.
//
// Usage:
//
//	server serve
//	server dispatch [--test]
//	server token --ttl 10m
//	server hash-secret <secret>
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Nixie-Tech-LLC/ramadan/internal/config"
	"github.com/Nixie-Tech-LLC/ramadan/internal/http/middleware"
)

const shutdownTimeout = 10 * time.Second

func main() {
	root := &cobra.Command{
		Use:          "server",
		Short:        "Ramadan 2026 Doha prayer times and reminder server",
		SilenceUsage: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(dispatchCmd())
	root.AddCommand(tokenCmd())
	root.AddCommand(hashSecretCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, logger := LoadEnvironment()
			if env.Environment == "prod" {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, err := InitServices(ctx, env, logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			if env.DispatchSchedule != "" && svc.Dispatcher != nil {
				c, err := StartSchedule(ctx, env.DispatchSchedule, svc.Dispatcher)
				if err != nil {
					return err
				}
				defer func() { <-c.Stop().Done() }()
			}

			srv := &http.Server{
				Addr:              env.ServerAddress,
				Handler:           NewRouter(svc, time.Now),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("address", env.ServerAddress).Msg("listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return fmt.Errorf("server error: %w", err)
			case <-ctx.Done():
			}

			log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func dispatchCmd() *cobra.Command {
	var test bool
	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Run one reminder dispatch, as the cron endpoint would",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, logger := LoadEnvironment()
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			svc, err := InitServices(ctx, env, logger)
			if err != nil {
				return err
			}
			defer svc.Close()
			if svc.Dispatcher == nil {
				return errors.New("push not configured: set VAPID keys and a store backend")
			}

			run := func() (any, error) { return svc.Dispatcher.Run(ctx, time.Now()) }
			if test {
				run = func() (any, error) { return svc.Dispatcher.Broadcast(ctx) }
			}
			res, err := run()
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(res)
		},
	}
	cmd.Flags().BoolVar(&test, "test", false, "Send the test message to every subscriber")
	return cmd
}

func tokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed bearer token for the cron endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.LoadServer()
			if err != nil {
				return err
			}
			token, err := middleware.IssueCronToken(env.CronSecret, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 10*time.Minute, "Token lifetime")
	return cmd
}

func hashSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-secret <secret>",
		Short: "Print a bcrypt hash usable as CRON_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := middleware.HashSecret(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
}
