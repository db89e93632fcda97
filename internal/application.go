package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-relay/internal/config"
	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
	"github.com/rocketscienceinc/tictactoe-relay/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-relay/internal/protocol"
	"github.com/rocketscienceinc/tictactoe-relay/internal/repository"
	"github.com/rocketscienceinc/tictactoe-relay/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-relay/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-relay/transport/relay"
	"github.com/rocketscienceinc/tictactoe-relay/transport/rest"
	"github.com/rocketscienceinc/tictactoe-relay/transport/websocket"
	"github.com/rocketscienceinc/tictactoe-relay/transport/wsclient"
)

// RunServer - runs the authoritative game server until SIGINT/SIGTERM.
func RunServer(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := signalContext(log)
	defer cancel()

	m := metrics.New()

	var mirror *repository.StateMirror
	if conf.Redis.Enabled {
		redisStorage, err := storage.NewRedisStorage(ctx, conf.Redis.GetRedisAddr())
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		mirror = repository.NewStateMirror(redisStorage.Connection)
		if err = mirror.SaveState(ctx, protocol.NewGameStatePayload(entity.NewGameState())); err != nil {
			return fmt.Errorf("could not reset state mirror: %w", err)
		}
	}

	gameManager := usecase.NewGameManager(logger)

	// A nil *StateMirror passed as the interface would not compare equal to nil.
	var wsServer *websocket.Server
	if mirror != nil {
		wsServer = websocket.New(logger, gameManager, m, mirror)
	} else {
		wsServer = websocket.New(logger, gameManager, m, nil)
	}

	restServer := rest.New(logger, wsServer, m.Handler())

	return serve(ctx, log,
		func() error { return wsServer.Start(ctx, conf.Server.SocketAddr()) },
		func() error { return restServer.Start(ctx, conf.Server.HTTPAddr()) },
	)
}

// RunRelay - runs the session multiplexer until SIGINT/SIGTERM.
func RunRelay(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := signalContext(log)
	defer cancel()

	m := metrics.New()

	relayServer := relay.New(logger, relay.Options{
		UpstreamURL: conf.Relay.UpstreamURL,
		Dial: wsclient.Options{
			Attempts:         conf.Relay.ReconnectAttempts,
			Interval:         conf.Relay.ReconnectInterval,
			HandshakeTimeout: conf.Relay.DialTimeout,
		},
		RegisterUpstream: conf.Relay.RegistersUpstream(),
	}, m)

	restServer := rest.New(logger, nil, m.Handler())

	return serve(ctx, log,
		func() error { return relayServer.Start(ctx, conf.Relay.SocketAddr()) },
		func() error { return restServer.Start(ctx, conf.Relay.HTTPAddr()) },
	)
}

func signalContext(log *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigs:
			log.Info("Received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigs)
	}()

	return ctx, cancel
}

// serve - runs the WebSocket and HTTP servers; the first failure stops the process.
func serve(ctx context.Context, log *slog.Logger, startWS, startHTTP func() error) error {
	httpErrCh := make(chan error, 1)
	go func() {
		if err := startHTTP(); err != nil {
			log.Error("HTTP server error", "error", err)
			httpErrCh <- err
		}
	}()

	wsErrCh := make(chan error, 1)
	go func() {
		if err := startWS(); err != nil {
			log.Error("WebSocket server error", "error", err)
			wsErrCh <- err
		}
	}()

	select {
	case err := <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err := <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
