package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GriffinCanCode/browser-gateway/internal/domain/session"
	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMillis(t *testing.T) {
	assert.Nil(t, millis(0))
	assert.Nil(t, millis(-time.Second))

	ms := millis(10 * time.Second)
	require.NotNil(t, ms)
	assert.Equal(t, 10000.0, *ms)
}

func TestLaunchOptions(t *testing.T) {
	opts := launchOptions(session.LaunchOptions{
		Headless: false,
		Args:     []string{"--no-sandbox", "--disable-dev-shm-usage"},
	})

	require.NotNil(t, opts.Headless)
	assert.False(t, *opts.Headless)
	assert.Equal(t, []string{"--no-sandbox", "--disable-dev-shm-usage"}, opts.Args)
}

func TestContextOptions(t *testing.T) {
	opts := contextOptions(session.ContextOptions{
		ViewportWidth:  1280,
		ViewportHeight: 720,
		UserAgent:      "Orchestra-Plugin-Browser/1.0",
	})

	require.NotNil(t, opts.Viewport)
	assert.Equal(t, 1280, opts.Viewport.Width)
	assert.Equal(t, 720, opts.Viewport.Height)
	require.NotNil(t, opts.UserAgent)
	assert.Equal(t, "Orchestra-Plugin-Browser/1.0", *opts.UserAgent)
	require.NotNil(t, opts.IgnoreHttpsErrors)
	assert.False(t, *opts.IgnoreHttpsErrors)

	bare := contextOptions(session.ContextOptions{})
	assert.Nil(t, bare.Viewport)
	assert.Nil(t, bare.UserAgent)
}

func TestGotoOptions(t *testing.T) {
	opts := gotoOptions(session.GotoOptions{
		WaitUntil: session.LoadStateDOMContentLoaded,
		Timeout:   30 * time.Second,
	})

	require.NotNil(t, opts.WaitUntil)
	assert.Equal(t, playwright.WaitUntilState("domcontentloaded"), *opts.WaitUntil)
	require.NotNil(t, opts.Timeout)
	assert.Equal(t, 30000.0, *opts.Timeout)

	bare := gotoOptions(session.GotoOptions{})
	assert.Nil(t, bare.WaitUntil)
	assert.Nil(t, bare.Timeout)
}

func TestLoadStateOptions(t *testing.T) {
	opts := loadStateOptions(session.LoadStateNetworkIdle, 30*time.Second)

	require.NotNil(t, opts.State)
	assert.Equal(t, playwright.LoadState("networkidle"), *opts.State)
	assert.Equal(t, 30000.0, *opts.Timeout)
}

func TestEngineLaunchFailsWhenDriverCannotStart(t *testing.T) {
	e := NewEngine(nil)
	calls := 0
	e.start = func() (*playwright.Playwright, error) {
		calls++
		return nil, errors.New("driver missing")
	}

	_, err := e.Launch(context.Background(), session.LaunchOptions{Headless: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "driver missing")
	assert.Nil(t, e.pw)

	_, err = e.Launch(context.Background(), session.LaunchOptions{Headless: true})
	require.Error(t, err)
	assert.Equal(t, 2, calls, "failed starts are retried on the next launch")
}

func TestEngineLaunchHonorsCancelledContext(t *testing.T) {
	e := NewEngine(nil)
	e.start = func() (*playwright.Playwright, error) {
		t.Fatal("driver must not start for a cancelled launch")
		return nil, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Launch(ctx, session.LaunchOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngineShutdownWithoutStart(t *testing.T) {
	e := NewEngine(nil)
	assert.NoError(t, e.Shutdown())
	assert.Nil(t, e.pw)
}
