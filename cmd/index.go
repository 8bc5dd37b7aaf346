package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"firestige.xyz/l2send/internal/link"
)

var indexCmd = &cobra.Command{
	Use:   "index [interface]",
	Short: "Resolve an interface name to its kernel index",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		name := cfg.Interface.Name
		if len(args) == 1 {
			name = args[0]
		}
		return runIndex(link.NewPlatform(), name, cfg.Interface.IoctlRequest, cmd.OutOrStdout())
	},
}

func runIndex(p link.Platform, name string, request uint, out io.Writer) error {
	idx, err := p.InterfaceIndex(name, request)
	if err != nil {
		return fmt.Errorf("failed to resolve %q: %w", name, err)
	}
	fmt.Fprintf(out, "%s\t%d\n", name, idx)
	return nil
}
