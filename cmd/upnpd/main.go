// Command upnpd runs a reference UPnP device server: a dimmable-light
// root device with one embedded sensor device, advertised over SSDP and
// controllable over SOAP. This wiring is the ambient demo/CLI layer
// spec.md §1 explicitly names out of the CORE (no CLI, no concrete
// devices), built by manual instantiation: straight constructor calls,
// no DI container.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/upnpstack/upnpd/conf"
	"github.com/upnpstack/upnpd/log"
	"github.com/upnpstack/upnpd/server"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "upnpd",
	Short: "Run a reference UPnP device server",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVar(&configFile, "config", "", "path to a YAML/TOML/JSON config file")
	rootCmd.Flags().Int("port", conf.Server.Port, "HTTP port to serve descriptions and control on")
	rootCmd.Flags().String("interface", conf.Server.Interface, "network interface to bind SSDP to (empty = default)")
	rootCmd.Flags().String("server-name", conf.Server.ServerName, "friendly name advertised by the device")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	if err := conf.Load(configFile); err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if port, err := cmd.Flags().GetInt("port"); err == nil && cmd.Flags().Changed("port") {
		conf.Server.Port = port
	}
	if iface, err := cmd.Flags().GetString("interface"); err == nil && cmd.Flags().Changed("interface") {
		conf.Server.Interface = iface
	}
	if name, err := cmd.Flags().GetString("server-name"); err == nil && cmd.Flags().Changed("server-name") {
		conf.Server.ServerName = name
	}

	log.SetLevel(logrus.InfoLevel)
	ctx := context.Background()

	host, err := sourceHost(conf.Server.Interface)
	if err != nil {
		return fmt.Errorf("resolving source address: %w", err)
	}
	baseURI := fmt.Sprintf("http://%s:%d", bracketIfIPv6(host), conf.Server.Port)

	root, err := buildReferenceDevice(conf.Server.ServerName)
	if err != nil {
		return fmt.Errorf("building reference device: %w", err)
	}
	root.BaseURI = baseURI

	srv := server.New(root, &net.TCPAddr{Port: conf.Server.Port}, serverTokens())
	srv.AdvertiseInterval = conf.Server.AdvertiseInterval
	if conf.Server.Interface != "" {
		iface, err := net.InterfaceByName(conf.Server.Interface)
		if err != nil {
			return fmt.Errorf("resolving interface %q: %w", conf.Server.Interface, err)
		}
		srv.Interface = iface
	}

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	stopCtx, cancel := context.WithTimeout(context.Background(), conf.Server.AdvertiseInterval)
	defer cancel()
	return srv.Stop(stopCtx)
}

// serverTokens composes the SSDP/HTTP SERVER header product tokens, the
// three-token form (OS/version UPnP/version product/version) spec.md §4.E
// requires.
func serverTokens() string {
	return fmt.Sprintf("%s/0 UPnP/1.0 %s/1.0", osToken(), "upnpd")
}

func osToken() string {
	if o := os.Getenv("GOOS"); o != "" {
		return o
	}
	return "Go"
}

func sourceHost(ifaceName string) (string, error) {
	if ifaceName == "" {
		return "127.0.0.1", nil
	}
	iface, err := net.InterfaceByName(ifaceName)
	if err != nil {
		return "", err
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return "", err
	}
	for _, a := range addrs {
		if ipNet, ok := a.(*net.IPNet); ok && ipNet.IP.To4() != nil {
			return ipNet.IP.String(), nil
		}
	}
	return "127.0.0.1", nil
}

func bracketIfIPv6(host string) string {
	if ip := net.ParseIP(host); ip != nil && ip.To4() == nil {
		return "[" + host + "]"
	}
	return host
}
