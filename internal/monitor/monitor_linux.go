//go:build linux

package monitor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/gopacket/afpacket"

	"firestige.xyz/l2send/internal/sender"
)

const pollTimeout = 100 * time.Millisecond

// Monitor is an open tap on one interface waiting for one frame.
type Monitor struct {
	iface   string
	want    []byte
	timeout time.Duration
	handle  *afpacket.TPacket
}

// New opens the ring on iface and installs the filter for frame. The ring
// must be open before the frame is sent or the copy is missed.
func New(iface string, frame []byte, cfg Config) (*Monitor, error) {
	cfg = cfg.withDefaults()

	g, err := computeRing(cfg.BufferSizeMB, cfg.SnapLen, os.Getpagesize())
	if err != nil {
		return nil, fmt.Errorf("size ring: %w", err)
	}
	filter, err := Filter(frame, uint32(cfg.SnapLen))
	if err != nil {
		return nil, err
	}

	handle, err := afpacket.NewTPacket(
		afpacket.OptInterface(iface),
		afpacket.OptFrameSize(g.FrameSize),
		afpacket.OptBlockSize(g.BlockSize),
		afpacket.OptNumBlocks(g.NumBlocks),
		afpacket.OptPollTimeout(pollTimeout),
		afpacket.SocketRaw,
		afpacket.TPacketVersion3,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create TPacket handle: %w", err)
	}
	if err := handle.SetBPF(filter); err != nil {
		handle.Close()
		return nil, fmt.Errorf("failed to set BPF: %w", err)
	}

	slog.Debug("monitor ring open",
		"interface", iface,
		"frame_size", g.FrameSize,
		"block_size", g.BlockSize,
		"num_blocks", g.NumBlocks)

	return &Monitor{
		iface:   iface,
		want:    append([]byte(nil), frame...),
		timeout: cfg.Timeout,
		handle:  handle,
	}, nil
}

// Open matches the observer factory expected by sender.WithObserver.
func Open(cfg Config) func(ctx context.Context, iface string, frame []byte) (sender.Observer, error) {
	return func(ctx context.Context, iface string, frame []byte) (sender.Observer, error) {
		return New(iface, frame, cfg)
	}
}

// Await reads the ring until the frame shows up or the timeout passes. A
// timeout is not an error: it returns an Observation with Seen unset.
func (m *Monitor) Await(ctx context.Context) (sender.Observation, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				slog.Debug("frame not observed", "interface", m.iface, "timeout", m.timeout)
				return sender.Observation{}, nil
			}
			return sender.Observation{}, ctx.Err()
		default:
		}

		data, ci, err := m.handle.ReadPacketData()
		if err != nil {
			if errors.Is(err, afpacket.ErrTimeout) || errors.Is(err, afpacket.ErrPoll) {
				continue
			}
			return sender.Observation{}, fmt.Errorf("read ring: %w", err)
		}
		if m.matches(data, ci.Length) {
			return sender.Observation{Seen: true, Length: ci.Length, At: ci.Timestamp}, nil
		}
	}
}

func (m *Monitor) matches(data []byte, wireLen int) bool {
	if wireLen < len(m.want) {
		return false
	}
	n := min(len(data), len(m.want))
	return bytes.Equal(data[:n], m.want[:n])
}

func (m *Monitor) Close() error {
	if m.handle != nil {
		m.handle.Close()
		m.handle = nil
	}
	return nil
}
