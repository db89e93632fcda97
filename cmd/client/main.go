package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rocketscienceinc/tictactoe-relay/internal/config"
	"github.com/rocketscienceinc/tictactoe-relay/internal/logger"
	"github.com/rocketscienceinc/tictactoe-relay/internal/ui"
	"github.com/rocketscienceinc/tictactoe-relay/transport/wsclient"
)

// main - the terminal client. It talks to the server or to a relay, whichever -server points at.
func main() {
	configPath := flag.String("config", "config.yml", "path to the YAML config")
	serverURL := flag.String("server", "", "websocket URL, overrides client.server-url")
	flag.Parse()

	conf, err := config.LoadOrEnv(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *serverURL != "" {
		conf.Client.ServerURL = *serverURL
	}

	log, closeLog, err := initLogger(conf)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closeLog()

	dial := func(ctx context.Context) (ui.Conn, error) {
		conn, err := wsclient.Dial(ctx, log, conf.Client.ServerURL, wsclient.Options{
			Attempts:         conf.Client.ReconnectAttempts,
			Interval:         conf.Client.ReconnectInterval,
			HandshakeTimeout: conf.Client.DialTimeout,
		})
		if err != nil {
			return nil, err
		}
		return conn, nil
	}

	model := ui.NewModel(log, conf.Client.ServerURL, dial)

	if _, err = tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "client failed: %v\n", err)
		os.Exit(1)
	}

	if err = model.Err(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, "Please ensure the server is running.")
		os.Exit(1)
	}
}

// initLogger - the terminal belongs to the board, so logs go to a file.
func initLogger(conf *config.Config) (*slog.Logger, func(), error) {
	file, err := os.OpenFile(conf.Client.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return logger.New(file, conf.LogLevel), func() { _ = file.Close() }, nil
}
