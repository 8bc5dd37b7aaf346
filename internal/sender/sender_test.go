package sender

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"firestige.xyz/l2send/internal/frame"
	"firestige.xyz/l2send/internal/link"
)

type MockPlatform struct {
	mock.Mock
}

func (m *MockPlatform) InterfaceIndex(name string, request uint) (int, error) {
	args := m.Called(name, request)
	return args.Int(0), args.Error(1)
}

func (m *MockPlatform) Open(protocol uint16) (link.Socket, error) {
	args := m.Called(protocol)
	sock, _ := args.Get(0).(link.Socket)
	return sock, args.Error(1)
}

func (m *MockPlatform) Addr(index int, protocol uint16) link.LinkAddr {
	args := m.Called(index, protocol)
	return args.Get(0).(link.LinkAddr)
}

type MockSocket struct {
	mock.Mock
}

func (m *MockSocket) Bind(addr link.LinkAddr) error {
	return m.Called(addr).Error(0)
}

func (m *MockSocket) Send(b []byte) (int, error) {
	args := m.Called(b)
	return args.Int(0), args.Error(1)
}

func (m *MockSocket) Close() error {
	return m.Called().Error(0)
}

type MockObserver struct {
	mock.Mock
}

func (m *MockObserver) Await(ctx context.Context) (Observation, error) {
	args := m.Called(ctx)
	return args.Get(0).(Observation), args.Error(1)
}

func (m *MockObserver) Close() error {
	return m.Called().Error(0)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func testOptions() Options {
	return Options{Interface: "enp0s8", Protocol: 255}
}

var boundAddr = link.LinkAddr{Family: 17, Protocol: 255, Ifindex: 3}

func TestRunSendsFrameOnce(t *testing.T) {
	p := new(MockPlatform)
	sock := new(MockSocket)
	f := frame.Default()

	p.On("InterfaceIndex", "enp0s8", uint(SIOCGIFINDEX)).Return(3, nil).Once()
	p.On("Open", uint16(255)).Return(sock, nil).Once()
	p.On("Addr", 3, uint16(255)).Return(boundAddr).Once()
	sock.On("Bind", boundAddr).Return(nil).Once()
	sock.On("Send", []byte(f)).Return(frame.Size, nil).Once()
	sock.On("Close").Return(nil).Once()

	res, err := New(p, testOptions(), WithLogger(quietLogger())).Run(context.Background(), f)
	require.NoError(t, err)

	assert.Equal(t, "enp0s8", res.Interface)
	assert.Equal(t, 3, res.Index)
	assert.Equal(t, frame.Size, res.Sent)
	assert.Nil(t, res.Observed)
	p.AssertExpectations(t)
	sock.AssertExpectations(t)
	sock.AssertNumberOfCalls(t, "Send", 1)
}

func TestBindToInterfaceUsesPlatformAddr(t *testing.T) {
	p := new(MockPlatform)
	sock := new(MockSocket)

	want := link.LinkAddr{Family: 17, Protocol: 255, Ifindex: 9}
	p.On("Addr", 9, uint16(255)).Return(want).Once()
	sock.On("Bind", mock.Anything).Return(nil).Once()

	s := New(p, testOptions(), WithLogger(quietLogger()))
	require.NoError(t, s.BindToInterface(sock, 9))

	got := sock.Calls[0].Arguments.Get(0).(link.LinkAddr)
	assert.Equal(t, uint16(17), got.Family)
	assert.Equal(t, uint16(255), got.Protocol)
	assert.Equal(t, 9, got.Ifindex)
	p.AssertExpectations(t)
	sock.AssertExpectations(t)
}

func TestBindToInterfaceRejected(t *testing.T) {
	p := new(MockPlatform)
	sock := new(MockSocket)

	p.On("Addr", 9, uint16(255)).Return(link.LinkAddr{Family: 17, Protocol: 255, Ifindex: 9})
	sock.On("Bind", mock.Anything).Return(&link.OpError{Op: "bind", Kind: link.ErrBindRejected}).Once()

	err := New(p, testOptions(), WithLogger(quietLogger())).BindToInterface(sock, 9)
	assert.True(t, errors.Is(err, link.ErrBindRejected))
	assert.Contains(t, err.Error(), "bind to enp0s8 (index 9)")
}

func TestRunInterfaceNotFoundStopsEarly(t *testing.T) {
	p := new(MockPlatform)
	lookupErr := &link.OpError{Op: "lookup enp0s8", Kind: link.ErrInterfaceNotFound}
	p.On("InterfaceIndex", "enp0s8", uint(SIOCGIFINDEX)).Return(0, lookupErr)

	res, err := New(p, testOptions(), WithLogger(quietLogger())).Run(context.Background(), frame.Default())

	assert.Nil(t, res)
	assert.True(t, errors.Is(err, link.ErrInterfaceNotFound))
	assert.Contains(t, err.Error(), `resolve interface "enp0s8"`)
	p.AssertNotCalled(t, "Open", mock.Anything)
	p.AssertNotCalled(t, "Addr", mock.Anything, mock.Anything)
}

func TestRunOpenFailure(t *testing.T) {
	p := new(MockPlatform)
	p.On("InterfaceIndex", "enp0s8", uint(SIOCGIFINDEX)).Return(3, nil)
	p.On("Open", uint16(255)).Return(nil, &link.OpError{Op: "socket", Kind: link.ErrPermissionDenied})

	_, err := New(p, testOptions(), WithLogger(quietLogger())).Run(context.Background(), frame.Default())

	assert.True(t, errors.Is(err, link.ErrPermissionDenied))
	p.AssertNotCalled(t, "Addr", mock.Anything, mock.Anything)
}

func TestRunBindFailureClosesSocket(t *testing.T) {
	p := new(MockPlatform)
	sock := new(MockSocket)
	p.On("InterfaceIndex", "enp0s8", uint(SIOCGIFINDEX)).Return(3, nil)
	p.On("Open", uint16(255)).Return(sock, nil)
	p.On("Addr", 3, uint16(255)).Return(boundAddr)
	sock.On("Bind", boundAddr).Return(&link.OpError{Op: "bind", Kind: link.ErrBindRejected})
	sock.On("Close").Return(nil).Once()

	_, err := New(p, testOptions(), WithLogger(quietLogger())).Run(context.Background(), frame.Default())

	assert.True(t, errors.Is(err, link.ErrBindRejected))
	sock.AssertNotCalled(t, "Send", mock.Anything)
	sock.AssertExpectations(t)
}

func TestRunTransmitFailure(t *testing.T) {
	p := new(MockPlatform)
	sock := new(MockSocket)
	p.On("InterfaceIndex", "enp0s8", uint(SIOCGIFINDEX)).Return(3, nil)
	p.On("Open", uint16(255)).Return(sock, nil)
	p.On("Addr", 3, uint16(255)).Return(boundAddr)
	sock.On("Bind", boundAddr).Return(nil)
	sock.On("Send", mock.Anything).Return(0, &link.OpError{Op: "send", Kind: link.ErrTransmitFailure})
	sock.On("Close").Return(nil)

	_, err := New(p, testOptions(), WithLogger(quietLogger())).Run(context.Background(), frame.Default())

	assert.True(t, errors.Is(err, link.ErrTransmitFailure))
	sock.AssertNumberOfCalls(t, "Send", 1)
}

func TestSendUnboundSocketFails(t *testing.T) {
	sock := new(MockSocket)
	sock.On("Send", mock.Anything).Return(0, &link.OpError{Op: "send", Kind: link.ErrNotBound})

	s := New(new(MockPlatform), testOptions(), WithLogger(quietLogger()))
	_, err := s.Send(sock, frame.Default())

	assert.True(t, errors.Is(err, link.ErrNotBound))
}

func TestSendShortSendPolicy(t *testing.T) {
	tests := []struct {
		name    string
		policy  ShortSendPolicy
		wantErr bool
	}{
		{"error policy", ShortSendError, true},
		{"warn policy", ShortSendWarn, false},
		{"default policy", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sock := new(MockSocket)
			sock.On("Send", mock.Anything).Return(60, nil)

			var logs bytes.Buffer
			opts := testOptions()
			opts.ShortSend = tt.policy
			s := New(new(MockPlatform), opts, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

			n, err := s.Send(sock, frame.Default())
			assert.Equal(t, 60, n)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrShortSend))
				assert.Contains(t, err.Error(), "60 of 100 bytes")
			} else {
				assert.NoError(t, err)
				assert.Contains(t, logs.String(), "short send")
			}
		})
	}
}

func TestRunDryRun(t *testing.T) {
	p := new(MockPlatform)
	p.On("InterfaceIndex", "enp0s8", uint(SIOCGIFINDEX)).Return(4, nil)

	opts := testOptions()
	opts.DryRun = true
	res, err := New(p, opts, WithLogger(quietLogger())).Run(context.Background(), frame.Default())

	require.NoError(t, err)
	assert.True(t, res.DryRun)
	assert.Equal(t, 4, res.Index)
	assert.Zero(t, res.Sent)
	p.AssertNotCalled(t, "Open", mock.Anything)
}

func TestRunCancelled(t *testing.T) {
	p := new(MockPlatform)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(p, testOptions(), WithLogger(quietLogger())).Run(ctx, frame.Default())

	assert.True(t, errors.Is(err, context.Canceled))
	p.AssertNotCalled(t, "InterfaceIndex", mock.Anything, mock.Anything)
}

func TestRunWithObserver(t *testing.T) {
	p := new(MockPlatform)
	sock := new(MockSocket)
	obs := new(MockObserver)
	f := frame.Default()

	p.On("InterfaceIndex", "enp0s8", uint(SIOCGIFINDEX)).Return(3, nil)
	p.On("Open", uint16(255)).Return(sock, nil)
	p.On("Addr", 3, uint16(255)).Return(boundAddr)
	sock.On("Bind", boundAddr).Return(nil)
	sock.On("Send", []byte(f)).Return(frame.Size, nil)
	sock.On("Close").Return(nil)
	obs.On("Await", mock.Anything).Return(Observation{Seen: true, Length: frame.Size}, nil).Once()
	obs.On("Close").Return(nil).Once()

	var observedIface string
	s := New(p, testOptions(), WithLogger(quietLogger()),
		WithObserver(func(ctx context.Context, iface string, b []byte) (Observer, error) {
			observedIface = iface
			return obs, nil
		}))

	res, err := s.Run(context.Background(), f)
	require.NoError(t, err)
	require.NotNil(t, res.Observed)
	assert.True(t, res.Observed.Seen)
	assert.Equal(t, "enp0s8", observedIface)
	obs.AssertExpectations(t)
}

func TestRunObserverOpenFailure(t *testing.T) {
	p := new(MockPlatform)
	sock := new(MockSocket)
	p.On("InterfaceIndex", "enp0s8", uint(SIOCGIFINDEX)).Return(3, nil)
	p.On("Open", uint16(255)).Return(sock, nil)
	p.On("Addr", 3, uint16(255)).Return(boundAddr)
	sock.On("Bind", boundAddr).Return(nil)
	sock.On("Close").Return(nil)

	s := New(p, testOptions(), WithLogger(quietLogger()),
		WithObserver(func(ctx context.Context, iface string, b []byte) (Observer, error) {
			return nil, errors.New("ring setup failed")
		}))

	_, err := s.Run(context.Background(), frame.Default())
	assert.ErrorContains(t, err, "ring setup failed")
	sock.AssertNotCalled(t, "Send", mock.Anything)
}

func TestParseShortSendPolicy(t *testing.T) {
	p, err := ParseShortSendPolicy("warn")
	require.NoError(t, err)
	assert.Equal(t, ShortSendWarn, p)

	_, err = ParseShortSendPolicy("retry")
	assert.Error(t, err)
}
