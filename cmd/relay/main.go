package main

import (
	"flag"
	"fmt"
	"os"

	app "github.com/rocketscienceinc/tictactoe-relay/internal"
	"github.com/rocketscienceinc/tictactoe-relay/internal/config"
	"github.com/rocketscienceinc/tictactoe-relay/internal/logger"
)

// main - runs the relay.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	configPath := flag.String("config", "config.yml", "path to the YAML config")
	flag.Parse()

	conf, err := config.LoadOrEnv(*configPath)
	if err != nil {
		panic(err)
	}

	if err = app.RunRelay(logger.New(os.Stdout, conf.LogLevel), conf); err != nil {
		panic(fmt.Errorf("app run failed: %w", err))
	}
}
