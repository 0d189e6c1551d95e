package main

import (
	"context"
	"time"

	omnihttp "github.com/fwojciec/omnirag/http"
	omniprom "github.com/fwojciec/omnirag/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *options) *cobra.Command {
	var docs []string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web interface and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			metrics := omniprom.New(reg)

			a, err := opts.newApp(ctx, cfg, metrics, opts.stderr)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.open(ctx, docs); err != nil {
				return err
			}

			srv := omnihttp.New(a.chat,
				omnihttp.WithLogger(a.log),
				omnihttp.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})),
			)
			return serve(ctx, srv, cfg.Server.Address, a.log)
		},
	}
	cmd.Flags().String("addr", "", "Listen address (default :8080)")
	cmd.Flags().StringArrayVar(&docs, "doc", nil, "File, directory or glob to add at startup (repeatable)")
	return cmd
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, srv *omnihttp.Server, addr string, log logrus.FieldLogger) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(addr) }()
	log.WithField("addr", addr).Info("listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
