// internal/config/config.go
// Centralized settings loader. Precedence, lowest to highest: the struct
// passed in (registered as viper defaults), an optional config file, then
// environment variables under a prefix, using the same spf13/viper
// dependency already present for the CLI side.
//
// GroupCast's settings contract mirrors Django Channels' three knobs:
//
//	WEBSOCKET_MIDDLEWARE        – ordered list of middleware names to build
//	                              the per-connection chain from
//	WEBSOCKET_ROUTE_MODULE      – logical name of the route table the
//	                              application registers (resolved by the
//	                              caller, not this package)
//	WEBSOCKET_TRANSPORT_BACKENDS – alias -> transport.Config table
package config

import (
	"github.com/spf13/viper"

	"github.com/groupcast/groupcast/internal/transport"
)

// TransportBackendConfig is one entry of WEBSOCKET_TRANSPORT_BACKENDS.
type TransportBackendConfig struct {
	Role           string `mapstructure:"role"` // "server", "client", or "forwarder"
	Address        string `mapstructure:"address"`
	NumConnections int    `mapstructure:"num_connections"`
	Prefix         string `mapstructure:"prefix"`
}

func (t TransportBackendConfig) toTransportConfig() transport.Config {
	return transport.Config{Address: t.Address, NumConnections: t.NumConnections, Prefix: t.Prefix}
}

// ToTransportConfig exposes the converted transport.Config for callers
// constructing a Layer from a resolved backend entry.
func (t TransportBackendConfig) ToTransportConfig() transport.Config { return t.toTransportConfig() }

// Settings is the fully-resolved configuration surface.
type Settings struct {
	Middleware        []string                           `mapstructure:"middleware"`
	RouteModule       string                              `mapstructure:"route_module"`
	TransportBackends map[string]TransportBackendConfig `mapstructure:"transport_backends"`
	BindAddress       string                              `mapstructure:"bind_address"`
	Workers           int                                 `mapstructure:"workers"`
}

// DefaultSettings returns sane defaults for local development: one "default"
// SERVER-role transport backend on the default unix socket, no middleware
// beyond what the caller appends, a single worker.
func DefaultSettings() Settings {
	return Settings{
		Middleware:  nil,
		RouteModule: "",
		TransportBackends: map[string]TransportBackendConfig{
			"default": {Role: "server", Address: "unix:/tmp/rpc.socket", NumConnections: 20},
		},
		BindAddress: "unix:/tmp/rpc.socket",
		Workers:     1,
	}
}

// Load merges file + env into cfg (caller typically passes
// DefaultSettings()). filePath may be empty. envPrefix, e.g. "GROUPCAST".
func Load(cfg *Settings, filePath, envPrefix string) error {
	if cfg == nil {
		tmp := DefaultSettings()
		cfg = &tmp
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if filePath != "" {
		v.SetConfigFile(filePath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return err
			}
		}
	}

	v.SetDefault("middleware", cfg.Middleware)
	v.SetDefault("route_module", cfg.RouteModule)
	v.SetDefault("bind_address", cfg.BindAddress)
	v.SetDefault("workers", cfg.Workers)

	return v.Unmarshal(cfg)
}
