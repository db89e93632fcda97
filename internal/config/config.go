package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	Server   Server `yaml:"server"`
	Relay    Relay  `yaml:"relay"`
	Client   Client `yaml:"client"`
	Redis    Redis  `yaml:"redis"`
}

// Server is the authoritative game server.
type Server struct {
	Host       string `yaml:"host" env:"SERVER_HOST" env-default:"0.0.0.0"`
	SocketPort string `yaml:"socket-port" env:"SERVER_SOCKET_PORT" env-default:"3001"`
	HTTPPort   string `yaml:"http-port" env:"SERVER_HTTP_PORT" env-default:"9090"`
}

// Relay is the session multiplexer in front of the authoritative server.
type Relay struct {
	Host              string        `yaml:"host" env:"RELAY_HOST" env-default:"0.0.0.0"`
	SocketPort        string        `yaml:"socket-port" env:"RELAY_SOCKET_PORT" env-default:"3002"`
	HTTPPort          string        `yaml:"http-port" env:"RELAY_HTTP_PORT" env-default:"9091"`
	UpstreamURL       string        `yaml:"upstream-url" env:"RELAY_UPSTREAM_URL" env-default:"ws://localhost:3001/ws"`
	ReconnectAttempts int           `yaml:"reconnect-attempts" env:"RELAY_RECONNECT_ATTEMPTS" env-default:"5"`
	ReconnectInterval time.Duration `yaml:"reconnect-interval" env:"RELAY_RECONNECT_INTERVAL" env-default:"2s"`
	DialTimeout       time.Duration `yaml:"dial-timeout" env:"RELAY_DIAL_TIMEOUT" env-default:"10s"`
	// Passthrough leaves upstream sessions unregistered, so each one may hold a player slot.
	Passthrough       bool          `yaml:"passthrough" env:"RELAY_PASSTHROUGH" env-default:"false"`
}

// Client is the terminal client.
type Client struct {
	ServerURL         string        `yaml:"server-url" env:"CLIENT_SERVER_URL" env-default:"ws://localhost:3001/ws"`
	ReconnectAttempts int           `yaml:"reconnect-attempts" env:"CLIENT_RECONNECT_ATTEMPTS" env-default:"5"`
	ReconnectInterval time.Duration `yaml:"reconnect-interval" env:"CLIENT_RECONNECT_INTERVAL" env-default:"2s"`
	DialTimeout       time.Duration `yaml:"dial-timeout" env:"CLIENT_DIAL_TIMEOUT" env-default:"10s"`
	LogFile           string        `yaml:"log-file" env:"CLIENT_LOG_FILE" env-default:"tictactoe-client.log"`
}

type Redis struct {
	Enabled bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host    string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port    string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Load - reads the YAML file at path, then applies environment overrides and defaults.
func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

// LoadOrEnv - like Load, but a missing file means env and defaults only.
func LoadOrEnv(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return FromEnv()
	}
	return Load(path)
}

// FromEnv - builds the configuration from environment variables and defaults only.
func FromEnv() (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadEnv(config); err != nil {
		return nil, fmt.Errorf("unable to read config from env: %w", err)
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

func (that *Server) SocketAddr() string {
	return net.JoinHostPort(that.Host, that.SocketPort)
}

func (that *Server) HTTPAddr() string {
	return net.JoinHostPort(that.Host, that.HTTPPort)
}

func (that *Relay) SocketAddr() string {
	return net.JoinHostPort(that.Host, that.SocketPort)
}

// RegistersUpstream reports whether each upstream session announces itself as a relay.
func (that *Relay) RegistersUpstream() bool {
	return !that.Passthrough
}

func (that *Relay) HTTPAddr() string {
	return net.JoinHostPort(that.Host, that.HTTPPort)
}
