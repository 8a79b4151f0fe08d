// Command mqttc is a small MQTT 3.1.1 client for pinging brokers, publishing
// and subscribing from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/vitalvas/mqttv3"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath  string
	server      string
	clientID    string
	logLevel    string
	metricsAddr string
}

func (f *globalFlags) bind(fs *pflag.FlagSet) {
	fs.StringVarP(&f.configPath, "config", "c", "", "TOML config file")
	fs.StringVarP(&f.server, "server", "s", "", "server URL (default tcp://localhost:1883)")
	fs.StringVarP(&f.clientID, "client-id", "i", "", "client identifier")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error, none")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:   "mqttc",
		Short: "MQTT 3.1.1 command line client",
		Long: `mqttc talks to MQTT 3.1.1 brokers over tcp, tls, ws, wss, unix and quic.

Settings come from an optional TOML file (--config) and are overridden
by command line flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags.bind(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		pingCmd(&flags),
		pubCmd(&flags),
		subCmd(&flags),
		versionCmd(),
	)

	return rootCmd
}

// resolveConfig loads the config file, if any, and applies the flags set on cmd.
func resolveConfig(cmd *cobra.Command, flags *globalFlags) (config, error) {
	cfg := defaultConfig()
	if flags.configPath != "" {
		var err error
		if cfg, err = loadConfig(flags.configPath); err != nil {
			return config{}, err
		}
	}

	changed := cmd.Flags().Changed
	if changed("server") {
		cfg.Server = flags.server
	}
	if changed("client-id") {
		cfg.ClientID = flags.clientID
	}
	if changed("metrics-addr") {
		cfg.MetricsAddr = flags.metricsAddr
	}
	if changed("log-level") {
		level, err := mqttv3.ParseLogLevel(flags.logLevel)
		if err != nil {
			return config{}, err
		}
		cfg.LogLevel = level
	}

	return cfg, nil
}
