package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"

	"github.com/spf13/cobra"

	"firestige.xyz/l2send/internal/config"
	"firestige.xyz/l2send/internal/frame"
	"firestige.xyz/l2send/internal/link"
	"firestige.xyz/l2send/internal/monitor"
	"firestige.xyz/l2send/internal/sender"
)

// FrameRunner transmits one frame, see sender.Sender.
type FrameRunner interface {
	Run(ctx context.Context, frame []byte) (*sender.Result, error)
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send the frame once",
	Long: `Send the frame once.

Steps, each fatal on failure:
  1. Build the 100-byte frame from the configured MAC pair
  2. Resolve the interface index (SIOCGIFINDEX)
  3. Open an AF_PACKET raw socket
  4. Bind it to the interface
  5. Transmit the frame in a single call`,
	Args: cobra.NoArgs,
	RunE: sendRunE,
}

var dryRun bool

func init() {
	addSendFlags(sendCmd)
}

func addSendFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("interface", "i", "", "interface to send on (default from config: enp0s8)")
	cmd.Flags().String("short-send", "", "on short send: error or warn")
	cmd.Flags().Bool("verify", false, "watch the interface and report whether the frame left")
	cmd.Flags().Duration("timeout", 0, "how long --verify waits for the frame")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "resolve the interface but do not send")
}

// newRunner builds the runner for a loaded config; tests replace it.
var newRunner = func(cfg *config.Config, dryRun bool) (FrameRunner, error) {
	return buildSender(cfg, dryRun)
}

func sendRunE(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	f, err := buildFrame(cfg)
	if err != nil {
		return err
	}
	r, err := newRunner(cfg, dryRun)
	if err != nil {
		return err
	}
	return runSend(cmd.Context(), r, f, cmd.OutOrStdout())
}

// runSend runs r once and reports the result on out.
func runSend(ctx context.Context, r FrameRunner, f frame.Frame, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := r.Run(ctx, f)
	if err != nil {
		return fmt.Errorf("failed to send frame: %w", err)
	}

	if res.DryRun {
		fmt.Fprintf(out, "✓ Dry run: %d bytes ready for %s (index %d), nothing sent\n",
			len(res.Frame), res.Interface, res.Index)
		return nil
	}
	fmt.Fprintf(out, "✓ Sent %d bytes on %s (index %d)\n", res.Sent, res.Interface, res.Index)

	if o := res.Observed; o != nil {
		if o.Seen {
			fmt.Fprintf(out, "✓ Frame observed on %s (%d bytes)\n", res.Interface, o.Length)
		} else {
			fmt.Fprintf(out, "✗ Frame not observed on %s before timeout\n", res.Interface)
		}
	}
	return nil
}

func buildFrame(cfg *config.Config) (frame.Frame, error) {
	h, err := frame.HeaderFromAddrs(net.HardwareAddr(cfg.Frame.Destination), net.HardwareAddr(cfg.Frame.Source))
	if err != nil {
		return nil, fmt.Errorf("invalid frame header: %w", err)
	}
	return frame.Build(h), nil
}

func buildSender(cfg *config.Config, dryRun bool) (*sender.Sender, error) {
	policy, err := sender.ParseShortSendPolicy(cfg.Socket.ShortSend)
	if err != nil {
		return nil, err
	}
	opts := sender.Options{
		Interface:    cfg.Interface.Name,
		IoctlRequest: cfg.Interface.IoctlRequest,
		Protocol:     uint16(cfg.Socket.Protocol),
		ShortSend:    policy,
		DryRun:       dryRun,
	}

	options := []sender.Option{sender.WithLogger(slog.Default())}
	if cfg.Monitor.Enabled {
		options = append(options, sender.WithObserver(monitor.Open(monitor.Config{
			Timeout:      cfg.Monitor.Timeout,
			SnapLen:      cfg.Monitor.SnapLen,
			BufferSizeMB: cfg.Monitor.BufferSizeMB,
		})))
	}
	return sender.New(link.NewPlatform(), opts, options...), nil
}
