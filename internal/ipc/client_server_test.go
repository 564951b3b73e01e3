package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func serveForTest(t *testing.T, socketPath string, handler HandlerFunc) context.CancelFunc {
	t.Helper()

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- Serve(ctx, listener, handler)
	}()

	var stopped bool
	stop := func() {
		if stopped {
			return
		}
		stopped = true
		cancel()
		require.NoError(t, <-serveDone)
	}
	t.Cleanup(stop)
	return stop
}

func TestSendRoundTrip(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "hark.sock")
	serveForTest(t, socketPath, func(_ context.Context, req Request) Response {
		require.Equal(t, CommandStatus, req.Command)
		return Response{OK: true, Status: "waiting-for-wake-word", Activation: true}
	})

	resp, err := Send(context.Background(), socketPath, Request{Command: CommandStatus}, 200*time.Millisecond)
	require.NoError(t, err)
	require.True(t, resp.OK)
	require.Equal(t, "waiting-for-wake-word", resp.Status)
	require.True(t, resp.Activation)
	require.False(t, resp.Transcription)
}

func TestForwardFoldsServerErrors(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "hark.sock")
	serveForTest(t, socketPath, func(_ context.Context, req Request) Response {
		if req.Command == CommandTranscript {
			return Response{OK: true, Transcript: "hello world"}
		}
		return Response{Error: "unknown command " + req.Command}
	})

	resp, err := Forward(context.Background(), socketPath, CommandTranscript, 200*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, "hello world", resp.Transcript)

	_, err = Forward(context.Background(), socketPath, "toggle", 200*time.Millisecond)
	require.EqualError(t, err, "unknown command toggle")
}

func TestForwardWithoutInstance(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "hark.sock")

	_, err := Forward(context.Background(), socketPath, CommandStop, 100*time.Millisecond)
	require.ErrorIs(t, err, ErrNoInstance)
}

func TestSendDecodeResponseError(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "hark.sock")

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		conn, acceptErr := listener.Accept()
		if acceptErr != nil {
			return
		}
		defer conn.Close()

		_, _ = bufio.NewReader(conn).ReadBytes('\n')
		_, _ = conn.Write([]byte("not-json\n"))
	}()

	_, err = Send(context.Background(), socketPath, Request{Command: CommandStatus}, 200*time.Millisecond)
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode response")
}

func TestForwardTreatsReadFailuresAsErrors(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "hark.sock")

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		conn, acceptErr := listener.Accept()
		if acceptErr != nil {
			return
		}
		_ = conn.Close()
	}()

	_, err = Forward(context.Background(), socketPath, CommandStatus, 200*time.Millisecond)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNoInstance)
	require.Contains(t, err.Error(), `forward command "status": read response`)
}

func TestServeDecodeRequestErrorResponse(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "hark.sock")
	serveForTest(t, socketPath, func(_ context.Context, _ Request) Response {
		return Response{OK: true}
	})

	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("not-json\n"))
	require.NoError(t, err)

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(line, &resp))
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "decode request")
}

func TestProbe(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "hark.sock")
	stop := serveForTest(t, socketPath, func(_ context.Context, req Request) Response {
		return Response{OK: req.Command == CommandStatus, Status: "idle"}
	})

	alive, probeErr := Probe(context.Background(), socketPath, 200*time.Millisecond)
	require.NoError(t, probeErr)
	require.True(t, alive)

	stop()

	alive, probeErr = Probe(context.Background(), socketPath, 100*time.Millisecond)
	require.NoError(t, probeErr)
	require.False(t, alive)
}
