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
	"go.uber.org/zap"

	"github.com/hanpama/graphbind/internal/otel"
	"github.com/hanpama/graphbind/internal/server"
)

func newServeCmd(configPath *string) *cobra.Command {
	var addr string
	var pretty bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP GraphQL endpoint at /graphql",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = a.log.Sync() }()
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("pretty") {
				a.cfg.Server.Pretty = pretty
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdown, err := otel.Setup(ctx, a.cfg.Tracing.Endpoint, a.cfg.Tracing.Service, a.bus)
			if err != nil {
				return err
			}
			defer func() { _ = shutdown(context.Background()) }()

			opts := []server.Option{
				server.WithTimeout(a.cfg.Server.Timeout),
				server.WithMaxBodyBytes(a.cfg.Server.MaxBodyBytes),
				server.WithBus(a.bus),
				server.WithLogger(a.log),
			}
			if a.cfg.Server.Pretty {
				opts = append(opts, server.WithPretty())
			}
			mux := http.NewServeMux()
			mux.Handle("/graphql", server.New(a.service, opts...))
			return listen(ctx, a, mux)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON responses (overrides server.pretty)")
	return cmd
}

// listen serves h until ctx is done, then drains in-flight requests.
func listen(ctx context.Context, a *app, h http.Handler) error {
	srv := &http.Server{Addr: a.cfg.Server.Addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	a.log.Info("graphql server listening", zap.String("addr", a.cfg.Server.Addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
