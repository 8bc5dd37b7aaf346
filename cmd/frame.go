package cmd

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"firestige.xyz/l2send/internal/frame"
)

var frameFormat string

var frameCmd = &cobra.Command{
	Use:   "frame",
	Short: "Print the frame that would be sent",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		f, err := buildFrame(cfg)
		if err != nil {
			return err
		}
		return runFrame(f, frameFormat, cmd.OutOrStdout())
	},
}

func init() {
	frameCmd.Flags().StringVarP(&frameFormat, "format", "f", "text", "output format: text, hex")
}

// runFrame writes f to out, decoded (text) or as raw hex. The text form
// decodes the header twice, with seqs and gopacket, and fails if they differ.
func runFrame(f frame.Frame, format string, out io.Writer) error {
	switch format {
	case "hex":
		fmt.Fprintln(out, hex.EncodeToString(f))
		return nil
	case "text":
	default:
		return fmt.Errorf("unsupported format: %s (must be text or hex)", format)
	}

	h, etherType, err := frame.ParseHeader(f)
	if err != nil {
		return fmt.Errorf("failed to parse header: %w", err)
	}
	d, err := frame.Describe(f)
	if err != nil {
		return fmt.Errorf("failed to decode frame: %w", err)
	}
	if h != f.Header() || etherType != d.EtherType ||
		!bytes.Equal(h.Destination[:], d.Destination) || !bytes.Equal(h.Source[:], d.Source) {
		return fmt.Errorf("header decoders disagree: %s ethertype 0x%04x vs %s", h, etherType, d)
	}
	fmt.Fprintf(out, "Frame:   %d bytes\n", len(f))
	fmt.Fprintf(out, "Header:  %s\n", d)
	fmt.Fprintf(out, "Layers:  %v\n", d.Layers)
	fmt.Fprintln(out)
	fmt.Fprint(out, hex.Dump(f))
	return nil
}
