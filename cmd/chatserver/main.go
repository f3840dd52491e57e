package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/LLIEPJIOK/stnet/internal/config"
	"github.com/LLIEPJIOK/stnet/internal/logging"
	"github.com/LLIEPJIOK/stnet/pkg/ws"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	v := config.New()

	var configPath string

	cmd := &cobra.Command{
		Use:   "chatserver [port] [html]",
		Short: "Single threaded WebSocket chat server",
		Example: "  chatserver 4002 ./webchat.html\n" +
			"  chatserver --config stnet.yaml --metrics-addr :9100",
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				port, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid port %q: %w", args[0], err)
				}

				v.Set("server.port", port)
			}

			if len(args) > 1 {
				v.Set("server.html", args[1])
			}

			cfg, err := config.Load(v, configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to YAML config file")
	flags.Int("port", 4002, "port to listen on")
	flags.String("html", "./webchat.html", "HTML file served for / and index.html")
	flags.Duration("tick", time.Second, "interval between server updates")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-file", "", "log file (rotated); stderr when empty")
	flags.String("metrics-addr", "", "address of the Prometheus endpoint, disabled when empty")

	bindFlags(v, cmd, map[string]string{
		"server.port":  "port",
		"server.html":  "html",
		"server.tick":  "tick",
		"log.level":    "log-level",
		"log.file":     "log-file",
		"metrics.addr": "metrics-addr",
	})

	return cmd
}

func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for key, flag := range keys {
		_ = v.BindPFlag(key, cmd.Flags().Lookup(flag))
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, closer := logging.New(cfg.Log)
	defer closer.Close()

	html, err := os.ReadFile(cfg.Server.HTML)
	if err != nil {
		return fmt.Errorf("unable to open HTML index file %s: %w", cfg.Server.HTML, err)
	}

	registry := prometheus.NewRegistry()

	serverCfg := ws.DefaultServerConfig(cfg.Server.Port, string(html))
	serverCfg.Host = cfg.Server.Host
	serverCfg.WriteTimeout = cfg.Server.WriteTimeout
	serverCfg.Logger = logger
	serverCfg.Metrics = ws.NewMetrics(ws.WithRegistry(registry))

	if cfg.Metrics.Addr != "" {
		stopMetrics := serveMetrics(cfg.Metrics.Addr, registry, logger)
		defer stopMetrics()
	}

	room := newChatRoom(logger)

	server, err := ws.NewServerWithHandler(serverCfg, room)
	if err != nil {
		return err
	}
	defer server.Close()

	ticker := time.NewTicker(cfg.Server.Tick)
	defer ticker.Stop()

	for {
		if err := server.Update(); err != nil {
			logger.Error("exception from server update", "error", err)
			return nil
		}

		log, shutdown := processMessages(server, server.Receive())
		server.Send(room.buildOutgoing(log))

		if shutdown {
			logger.Info("shutting down")
			return nil
		}

		select {
		case <-ctx.Done():
			logger.Info("interrupted, shutting down")
			return nil
		case <-ticker.C:
		}
	}
}

func serveMetrics(addr string, registry *prometheus.Registry, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	logger.Info("metrics endpoint enabled", "addr", addr)

	return func() {
		_ = srv.Close()
	}
}
