package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/cheetah/cmd/cheetah/commands"
	"go.trai.ch/cheetah/internal/app"
	"go.trai.ch/cheetah/internal/build"
)

type mockApp struct {
	serveFunc func(ctx context.Context, opts app.ServeOptions) error
}

func (m *mockApp) Serve(ctx context.Context, opts app.ServeOptions) error {
	if m.serveFunc != nil {
		return m.serveFunc(ctx, opts)
	}
	return nil
}

func TestCommands_Serve(t *testing.T) {
	t.Run("wires flags correctly", func(t *testing.T) {
		var captured app.ServeOptions
		mock := &mockApp{
			serveFunc: func(_ context.Context, opts app.ServeOptions) error {
				captured = opts
				return nil
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{
			"serve", "-c", "cheetah.yaml", "--listen", ":7070", "--log-level", "debug",
			"--log-format", "json", "--trace", "--max-sessions", "4",
		})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, "cheetah.yaml", captured.ConfigPath)
		require.NotNil(t, captured.Listen)
		assert.Equal(t, ":7070", *captured.Listen)
		require.NotNil(t, captured.LogLevel)
		assert.Equal(t, "debug", *captured.LogLevel)
		require.NotNil(t, captured.LogFormat)
		assert.Equal(t, "json", *captured.LogFormat)
		require.NotNil(t, captured.Trace)
		assert.True(t, *captured.Trace)
		require.NotNil(t, captured.MaxSessions)
		assert.Equal(t, 4, *captured.MaxSessions)
	})

	t.Run("leaves unset flags to the config", func(t *testing.T) {
		var captured app.ServeOptions
		called := false
		mock := &mockApp{
			serveFunc: func(_ context.Context, opts app.ServeOptions) error {
				captured = opts
				called = true
				return nil
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{})

		require.NoError(t, cli.Execute(context.Background()))
		assert.True(t, called)
		assert.Equal(t, app.ServeOptions{}, captured)
	})

	t.Run("root accepts serve flags", func(t *testing.T) {
		var captured app.ServeOptions
		mock := &mockApp{
			serveFunc: func(_ context.Context, opts app.ServeOptions) error {
				captured = opts
				return nil
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"--max-sessions", "0"})

		require.NoError(t, cli.Execute(context.Background()))
		require.NotNil(t, captured.MaxSessions)
		assert.Zero(t, *captured.MaxSessions)
	})

	t.Run("returns error on serve failure", func(t *testing.T) {
		mock := &mockApp{
			serveFunc: func(_ context.Context, _ app.ServeOptions) error {
				return errors.New("simulated error")
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"serve"})
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))

		err := cli.Execute(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})

	t.Run("rejects positional arguments", func(t *testing.T) {
		mock := &mockApp{
			serveFunc: func(_ context.Context, _ app.ServeOptions) error {
				panic("should not be called")
			},
		}

		cli := commands.New(mock)
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))
		cli.SetArgs([]string{"serve", "extra"})

		require.Error(t, cli.Execute(context.Background()))
	})
}

func TestCommands_Version(t *testing.T) {
	cli := commands.New(&mockApp{})

	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs([]string{"version"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Contains(t, buf.String(), "cheetah version "+build.Version)
}
