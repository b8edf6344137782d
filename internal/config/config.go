package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"golang.org/x/net/proxy"
	"gopkg.in/yaml.v3"
)

// Config holds all client configuration
type Config struct {
	Server   string `yaml:"server"`
	Port     int    `yaml:"port"`
	Nick     string `yaml:"nick"`
	Channel  string `yaml:"channel"`
	Encoding string `yaml:"encoding"`
	Proxy    Proxy  `yaml:"proxy"`
	DataDir  string `yaml:"data_dir"`
	Debug    bool   `yaml:"debug"`
}

// Proxy is an optional SOCKS5 proxy used to reach the server
type Proxy struct {
	Address  string `yaml:"address"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Load reads and parses a YAML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.SetDefaults()

	return &cfg, nil
}

// SetDefaults fills in unset optional fields
func (c *Config) SetDefaults() {
	if c.Port == 0 {
		c.Port = 6667
	}
	if c.Encoding == "" {
		c.Encoding = "iso-8859-1"
	}
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
}

// Validate checks that the fields needed to connect are present
func (c *Config) Validate() error {
	var errs []error
	if c.Server == "" {
		errs = append(errs, errors.New("server is required"))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Nick == "" {
		errs = append(errs, errors.New("nick is required"))
	}
	if c.Channel == "" {
		errs = append(errs, errors.New("channel is required"))
	}
	return errors.Join(errs...)
}

// Addr returns the server address as host:port
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server, strconv.Itoa(c.Port))
}

// Dialer returns the dial function for the session: direct, or through
// the configured SOCKS5 proxy.
func (c *Config) Dialer() (func(ctx context.Context, network, addr string) (net.Conn, error), error) {
	direct := &net.Dialer{}
	if c.Proxy.Address == "" {
		return direct.DialContext, nil
	}

	var auth *proxy.Auth
	if c.Proxy.Username != "" {
		auth = &proxy.Auth{
			User:     c.Proxy.Username,
			Password: c.Proxy.Password,
		}
	}
	socks, err := proxy.SOCKS5("tcp", c.Proxy.Address, auth, direct)
	if err != nil {
		return nil, fmt.Errorf("failed to set up proxy %s: %w", c.Proxy.Address, err)
	}
	if cd, ok := socks.(proxy.ContextDialer); ok {
		return cd.DialContext, nil
	}
	return func(_ context.Context, network, addr string) (net.Conn, error) {
		return socks.Dial(network, addr)
	}, nil
}
