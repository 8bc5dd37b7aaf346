// Package sender implements FrameSender: resolve an interface, open a raw
// link-layer socket, bind it and transmit one frame.
package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"firestige.xyz/l2send/internal/link"
)

// ErrShortSend is returned when the kernel accepts fewer bytes than the
// frame holds and the policy is ShortSendError.
var ErrShortSend = errors.New("short send")

// ShortSendPolicy decides what a partial transmit means.
type ShortSendPolicy string

const (
	ShortSendError ShortSendPolicy = "error"
	ShortSendWarn  ShortSendPolicy = "warn"
)

// SIOCGIFINDEX is the Linux control request mapping a name to an index.
const SIOCGIFINDEX = 0x8933

// Options configures a Sender.
type Options struct {
	Interface    string
	IoctlRequest uint
	Protocol     uint16
	ShortSend    ShortSendPolicy
	// DryRun stops after the interface lookup.
	DryRun bool
}

// Observer watches the interface for the frame once it has been sent.
type Observer interface {
	Await(ctx context.Context) (Observation, error)
	Close() error
}

// Observation reports whether the outgoing frame was seen on the interface.
type Observation struct {
	Seen   bool
	Length int
	At     time.Time
}

// Result describes one run.
type Result struct {
	Interface string
	Index     int
	Frame     []byte
	Sent      int
	DryRun    bool
	Observed  *Observation
}

// Sender runs the five-step transmit sequence against a link.Platform.
type Sender struct {
	opts     Options
	platform link.Platform
	logger   *slog.Logger
	observe  func(ctx context.Context, iface string, frame []byte) (Observer, error)
}

// Option customises a Sender.
type Option func(*Sender)

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sender) { s.logger = l }
}

// WithObserver installs a factory that opens an Observer right before the
// send step.
func WithObserver(fn func(ctx context.Context, iface string, frame []byte) (Observer, error)) Option {
	return func(s *Sender) { s.observe = fn }
}

// New creates a Sender. Zero-valued options fall back to SIOCGIFINDEX and
// ShortSendError.
func New(platform link.Platform, opts Options, options ...Option) *Sender {
	if opts.IoctlRequest == 0 {
		opts.IoctlRequest = SIOCGIFINDEX
	}
	if opts.ShortSend == "" {
		opts.ShortSend = ShortSendError
	}
	s := &Sender{
		opts:     opts,
		platform: platform,
		logger:   slog.Default(),
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Run transmits frame exactly once. Any failed step ends the run.
func (s *Sender) Run(ctx context.Context, frame []byte) (*Result, error) {
	res := &Result{
		Interface: s.opts.Interface,
		Frame:     frame,
		DryRun:    s.opts.DryRun,
	}
	log := s.logger.With("interface", s.opts.Interface)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx, err := s.ResolveInterfaceIndex()
	if err != nil {
		return nil, err
	}
	res.Index = idx
	log.Debug("interface resolved", "index", idx)

	if s.opts.DryRun {
		log.Info("dry run, frame not sent", "index", idx, "bytes", len(frame))
		return res, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sock, err := s.OpenRawSocket()
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := sock.Close(); cerr != nil {
			log.Warn("close raw socket", "error", cerr)
		}
	}()
	log.Debug("raw socket opened", "protocol", s.opts.Protocol)

	if err := s.BindToInterface(sock, idx); err != nil {
		return nil, err
	}
	log.Debug("socket bound", "index", idx)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var obs Observer
	if s.observe != nil {
		obs, err = s.observe(ctx, s.opts.Interface, frame)
		if err != nil {
			return nil, fmt.Errorf("open observer on %s: %w", s.opts.Interface, err)
		}
		defer obs.Close()
	}

	n, err := s.Send(sock, frame)
	res.Sent = n
	if err != nil {
		return nil, err
	}

	if obs != nil {
		o, err := obs.Await(ctx)
		if err != nil {
			return nil, fmt.Errorf("observe %s: %w", s.opts.Interface, err)
		}
		res.Observed = &o
		log.Debug("observation complete", "seen", o.Seen, "bytes", o.Length)
	}

	log.Info("frame sent", "index", idx, "bytes", n)
	return res, nil
}

// ResolveInterfaceIndex looks up the configured interface.
func (s *Sender) ResolveInterfaceIndex() (int, error) {
	idx, err := s.platform.InterfaceIndex(s.opts.Interface, s.opts.IoctlRequest)
	if err != nil {
		return 0, fmt.Errorf("resolve interface %q: %w", s.opts.Interface, err)
	}
	return idx, nil
}

// OpenRawSocket opens a raw link-layer socket for the configured protocol.
func (s *Sender) OpenRawSocket() (link.Socket, error) {
	sock, err := s.platform.Open(s.opts.Protocol)
	if err != nil {
		return nil, fmt.Errorf("open raw socket: %w", err)
	}
	return sock, nil
}

// BindToInterface binds sock to the interface at index.
func (s *Sender) BindToInterface(sock link.Socket, index int) error {
	addr := s.platform.Addr(index, s.opts.Protocol)
	if err := sock.Bind(addr); err != nil {
		return fmt.Errorf("bind to %s (index %d): %w", s.opts.Interface, index, err)
	}
	return nil
}

// Send transmits frame with one call and applies the short-send policy.
func (s *Sender) Send(sock link.Socket, frame []byte) (int, error) {
	n, err := sock.Send(frame)
	if err != nil {
		return n, fmt.Errorf("send %d bytes on %s: %w", len(frame), s.opts.Interface, err)
	}
	if n < len(frame) {
		if s.opts.ShortSend == ShortSendWarn {
			s.logger.Warn("short send", "interface", s.opts.Interface, "sent", n, "want", len(frame))
			return n, nil
		}
		return n, fmt.Errorf("%w: %d of %d bytes on %s", ErrShortSend, n, len(frame), s.opts.Interface)
	}
	return n, nil
}

// ParseShortSendPolicy validates a policy name.
func ParseShortSendPolicy(v string) (ShortSendPolicy, error) {
	switch p := ShortSendPolicy(v); p {
	case ShortSendError, ShortSendWarn:
		return p, nil
	}
	return "", fmt.Errorf("unknown short send policy %q (must be error or warn)", v)
}
