// Package conf declares the server's configuration surface, loaded via
// viper from environment variables (prefixed UPNPD_) and an optional
// config file, exposed through a package-level Server.* access convention.
package conf

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Configuration is the process-wide configuration surface.
type Configuration struct {
	Port              int
	Interface         string
	ServerName        string
	AdvertiseInterval time.Duration
	MulticastTTL      int
	CacheMaxAge       time.Duration
}

// Server holds the active configuration, populated by Load. Its initial
// value holds the defaults below.
var Server = Configuration{
	Port:              8200,
	ServerName:        "GoUPnPServer",
	AdvertiseInterval: 30 * time.Second,
	MulticastTTL:      4,
	CacheMaxAge:       30 * time.Minute,
}

// Load populates Server from environment variables prefixed UPNPD_ and,
// when configPath is non-empty, a YAML/TOML/JSON config file. Missing
// files are not an error; missing individual keys keep their defaults.
func Load(configPath string) error {
	v := viper.New()
	v.SetEnvPrefix("UPNPD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", Server.Port)
	v.SetDefault("interface", Server.Interface)
	v.SetDefault("servername", Server.ServerName)
	v.SetDefault("advertiseinterval", Server.AdvertiseInterval)
	v.SetDefault("multicastttl", Server.MulticastTTL)
	v.SetDefault("cachemaxage", Server.CacheMaxAge)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return fmt.Errorf("reading config file %s: %w", configPath, err)
			}
		}
	}

	Server = Configuration{
		Port:              v.GetInt("port"),
		Interface:         v.GetString("interface"),
		ServerName:        v.GetString("servername"),
		AdvertiseInterval: v.GetDuration("advertiseinterval"),
		MulticastTTL:      v.GetInt("multicastttl"),
		CacheMaxAge:       v.GetDuration("cachemaxage"),
	}
	return nil
}
