package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

var (
	defaultServer = "" // inject via flags
)

// searchPaths are tried in order, the first config.toml found wins.
var searchPaths = []string{"/etc/remdit", "$HOME/.remdit", "."}

type Config struct {
	Servers []Server `mapstructure:"servers" toml:"servers" json:"servers"`
}

type Server struct {
	Addr string `mapstructure:"addr" toml:"addr" json:"addr"`
	Key  string `mapstructure:"key" toml:"key" json:"key"`
}

func (s *Server) Valid() bool {
	return s.Addr != ""
}

// ValidServers returns the servers with a usable address, keeping their order.
func (c *Config) ValidServers() []Server {
	var servers []Server
	for _, server := range c.Servers {
		if server.Valid() {
			servers = append(servers, server)
		}
	}
	return servers
}

var C *Config

// LoadConfig loads the global config C. An empty file means the default search paths.
func LoadConfig(ctx context.Context, file string) error {
	conf, err := Load(ctx, file, searchPaths...)
	if err != nil {
		return err
	}
	C = conf
	return nil
}

// Load reads file when set, otherwise the first config.toml found in paths.
// A missing config is not an error unless file was given explicitly.
func Load(ctx context.Context, file string, paths ...string) (*Config, error) {
	logger := log.FromContext(ctx)
	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		for _, p := range paths {
			v.AddConfigPath(p)
		}
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	conf := &Config{}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !(errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if defaultServer != "" {
			conf.Servers = []Server{{Addr: defaultServer}}
			logger.Debug("no config file found, using default server", "addr", defaultServer)
			return conf, nil
		}
		logger.Debug("no config file found")
		return conf, nil
	}
	logger.Debug("loaded config", "file", v.ConfigFileUsed())
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return conf, nil
}
