package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

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
		Use:           "chatclient [address] [port]",
		Short:         "Line based client for the chat server",
		Example:       "  chatclient localhost 4002",
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				v.Set("client.address", args[0])
			}

			if len(args) > 1 {
				v.Set("client.port", args[1])
			}

			cfg, err := config.Load(v, configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to YAML config file")
	flags.Duration("tick", 50*time.Millisecond, "interval between client updates")
	flags.String("log-level", "warn", "log level: debug, info, warn, error")
	flags.String("log-file", "", "log file (rotated); stderr when empty")

	_ = v.BindPFlag("client.tick", flags.Lookup("tick"))
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("log.file", flags.Lookup("log-file"))

	return cmd
}

func run(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	logger, closer := logging.New(cfg.Log)
	defer closer.Close()

	clientCfg := ws.DefaultClientConfig(cfg.Client.Address, cfg.Client.Port)
	clientCfg.Logger = logger

	client := ws.NewClient(clientCfg)
	defer client.Close()

	done := make(chan struct{})
	defer close(done)

	lines := readLines(in, done)

	ticker := time.NewTicker(cfg.Client.Tick)
	defer ticker.Stop()

	for !client.IsDisconnected() {
		if err := client.Update(); err != nil {
			fmt.Fprintf(out, "Exception from Client update:\n%s\n", err)
			return nil
		}

		if response := client.Receive(); response != "" {
			fmt.Fprint(out, response)
		}

	input:
		for {
			select {
			case line, ok := <-lines:
				if !ok || line == "exit" || line == "quit" {
					flush(client, cfg.Client.Tick)
					return nil
				}

				client.Send(line)
			default:
				break input
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}

	fmt.Fprintln(out, "Disconnected from server.")

	return nil
}

// flushTimeout ограничивает ожидание отправки очереди при выходе.
const flushTimeout = 2 * time.Second

// flush продолжает Update, пока клиент не отправит всё, что уже поставлено
// в очередь.
func flush(client *ws.Client, tick time.Duration) {
	deadline := time.Now().Add(flushTimeout)

	for client.Pending() > 0 && !client.IsDisconnected() && time.Now().Before(deadline) {
		if err := client.Update(); err != nil {
			return
		}

		time.Sleep(tick)
	}
}

// readLines читает ввод в отдельной горутине, чтобы цикл обновления не
// блокировался на stdin. Горутина завершается после закрытия done.
func readLines(in io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimRight(scanner.Text(), "\r"):
			case <-done:
				return
			}
		}
	}()

	return lines
}
