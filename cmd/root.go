// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"firestige.xyz/l2send/internal/config"
	"firestige.xyz/l2send/internal/log"
)

var (
	// Global flags
	configFile string
)

// rootCmd sends the frame when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "l2send",
	Short: "l2send - send one raw Ethernet frame out of a named interface",
	Long: `l2send is a link-layer diagnostic tool.
It builds a fixed 100-byte Ethernet frame, opens an AF_PACKET raw socket
bound to the configured interface and transmits the frame exactly once.

Raw sockets need CAP_NET_RAW; run as root or grant the capability.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          sendRunE,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path (optional)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text, json")

	addSendFlags(rootCmd)

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(frameCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig reads configuration for cmd and initialises logging from it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := log.Init(cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to init logging: %w", err)
	}
	return cfg, nil
}
