package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"firestige.xyz/l2send/internal/config"
	"firestige.xyz/l2send/internal/frame"
	"firestige.xyz/l2send/internal/link"
	"firestige.xyz/l2send/internal/sender"
)

// MockRunner implements FrameRunner
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, f []byte) (*sender.Result, error) {
	args := m.Called(ctx, f)
	res, _ := args.Get(0).(*sender.Result)
	return res, args.Error(1)
}

func TestRunSend_Success(t *testing.T) {
	f := frame.Default()
	r := new(MockRunner)
	r.On("Run", mock.Anything, []byte(f)).Return(&sender.Result{
		Interface: "enp0s8", Index: 3, Frame: f, Sent: frame.Size,
	}, nil)

	var buf bytes.Buffer
	err := runSend(context.Background(), r, f, &buf)

	assert.NoError(t, err)
	assert.Equal(t, "✓ Sent 100 bytes on enp0s8 (index 3)\n", buf.String())
	r.AssertExpectations(t)
}

func TestRunSend_Failure(t *testing.T) {
	r := new(MockRunner)
	r.On("Run", mock.Anything, mock.Anything).
		Return(nil, &link.OpError{Op: "lookup enp0s8", Kind: link.ErrInterfaceNotFound})

	var buf bytes.Buffer
	err := runSend(context.Background(), r, frame.Default(), &buf)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, link.ErrInterfaceNotFound))
	assert.Contains(t, err.Error(), "failed to send frame")
	assert.Empty(t, buf.String())
}

func TestRunSend_Outcomes(t *testing.T) {
	tests := []struct {
		name   string
		result *sender.Result
		want   []string
	}{
		{
			name:   "dry run",
			result: &sender.Result{Interface: "lo", Index: 1, Frame: frame.Default(), DryRun: true},
			want:   []string{"✓ Dry run: 100 bytes ready for lo (index 1), nothing sent"},
		},
		{
			name: "observed",
			result: &sender.Result{Interface: "lo", Index: 1, Sent: 100,
				Observed: &sender.Observation{Seen: true, Length: 100}},
			want: []string{"✓ Sent 100 bytes on lo", "✓ Frame observed on lo (100 bytes)"},
		},
		{
			name: "not observed",
			result: &sender.Result{Interface: "lo", Index: 1, Sent: 100,
				Observed: &sender.Observation{}},
			want: []string{"✗ Frame not observed on lo before timeout"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := new(MockRunner)
			r.On("Run", mock.Anything, mock.Anything).Return(tt.result, nil)

			var buf bytes.Buffer
			require.NoError(t, runSend(context.Background(), r, frame.Default(), &buf))
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestSendCmd_Execute(t *testing.T) {
	r := new(MockRunner)
	r.On("Run", mock.Anything, []byte(frame.Default())).
		Return(&sender.Result{Interface: "tap0", Index: 7, Sent: 100}, nil)

	var gotCfg *config.Config
	prev := newRunner
	newRunner = func(cfg *config.Config, dry bool) (FrameRunner, error) {
		gotCfg = cfg
		return r, nil
	}
	defer func() { newRunner = prev }()

	root := &cobra.Command{Use: "l2send"}
	root.PersistentFlags().String("log-level", "", "")
	root.AddCommand(sendCmd)

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"send", "-i", "tap0", "--short-send", "warn", "--log-level", "error"})

	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "✓ Sent 100 bytes on tap0 (index 7)")
	require.NotNil(t, gotCfg)
	assert.Equal(t, "tap0", gotCfg.Interface.Name)
	assert.Equal(t, "warn", gotCfg.Socket.ShortSend)
	r.AssertExpectations(t)
}

func TestBuildSender(t *testing.T) {
	cfg, err := config.Load("", nil)
	require.NoError(t, err)

	s, err := buildSender(cfg, false)
	require.NoError(t, err)
	assert.NotNil(t, s)

	cfg.Socket.ShortSend = "ignore"
	_, err = buildSender(cfg, false)
	assert.Error(t, err)
}

func TestBuildFrame(t *testing.T) {
	cfg, err := config.Load("", nil)
	require.NoError(t, err)

	f, err := buildFrame(cfg)
	require.NoError(t, err)
	assert.Equal(t, frame.Default(), f)

	cfg.Frame.Source = config.HardwareAddr{1, 2, 3}
	_, err = buildFrame(cfg)
	assert.Error(t, err)
}
