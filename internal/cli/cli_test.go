package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/switchboard/internal/logging"
)

func TestSignalContext_ParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	sc := NewSignalContext(parent)
	cancel()

	select {
	case <-sc.Done():
	case <-time.After(time.Second):
		t.Fatal("signal context not cancelled with its parent")
	}
	assert.Nil(t, sc.Signal())
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	cfg, err := LoadConfig(GlobalOptions{
		DotEnv:   filepath.Join(t.TempDir(), ".env"),
		LogLevel: "debug",
		Flow:     "flows/support.yaml",
	})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "flows/support.yaml", cfg.Engine.Flow)
}

func TestRunSession_Headless(t *testing.T) {
	st, _, err := LoadStack(context.Background(), GlobalOptions{})
	require.NoError(t, err)
	defer st.Close()

	var out bytes.Buffer
	err = RunSession(context.Background(), st.Engine, RunOptions{SessionID: "cli", Input: "oi", Headless: true}, strings.NewReader(""), &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 5)
}

func TestRunSession_PlainOutputHasPrompt(t *testing.T) {
	st, _, err := LoadStack(context.Background(), GlobalOptions{})
	require.NoError(t, err)
	defer st.Close()

	var out bytes.Buffer
	err = RunSession(context.Background(), st.Engine, RunOptions{SessionID: "cli"}, strings.NewReader("quit\n"), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "--- Switchboard (session cli) ---")
	assert.Contains(t, out.String(), "[greeting]")
	assert.Contains(t, out.String(), "Bye!")
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	})}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, srv, ln, time.Second, logging.NewNop())
	}()

	resp, err := http.Get("http://" + ln.Addr().String())
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
