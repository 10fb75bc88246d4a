// Package telemetry sends anonymous, opt-in usage events (which subcommand
// ran, which flags were set — never prefixes, remotes, or commit content)
// to PostHog so the CLI's authors can see which commands see real use.
package telemetry

import (
	"net"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/posthog/posthog-go"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// PostHogAPIKey is set at build time for production.
	PostHogAPIKey = "phc_development_key"
	// PostHogEndpoint is set at build time for production.
	PostHogEndpoint = "https://eu.i.posthog.com"
)

// Client records CLI command executions.
type Client interface {
	TrackCommand(cmd *cobra.Command)
	Close()
}

// NoOpClient is used whenever telemetry is disabled.
type NoOpClient struct{}

func (n *NoOpClient) TrackCommand(_ *cobra.Command) {}
func (n *NoOpClient) Close()                        {}

// silentLogger suppresses PostHog log output; a timed-out best-effort send
// is expected, not an error worth surfacing to the user.
type silentLogger struct{}

func (silentLogger) Logf(_ string, _ ...interface{})   {}
func (silentLogger) Debugf(_ string, _ ...interface{}) {}
func (silentLogger) Warnf(_ string, _ ...interface{})  {}
func (silentLogger) Errorf(_ string, _ ...interface{}) {}

// PostHogClient is the real telemetry client.
type PostHogClient struct {
	client     posthog.Client
	machineID  string
	cliVersion string
	mu         sync.RWMutex
}

// NewClient builds a Client based on the SUBTREE_TELEMETRY_OPTOUT
// environment variable and the config-file opt-in flag. telemetryEnabled
// is nil when the user has never been asked; that defaults to disabled.
//
//nolint:ireturn // factory: returns NoOpClient or PostHogClient depending on opt-in state
func NewClient(version string, telemetryEnabled *bool) Client {
	if os.Getenv("SUBTREE_TELEMETRY_OPTOUT") != "" {
		return &NoOpClient{}
	}
	if telemetryEnabled == nil || !*telemetryEnabled {
		return &NoOpClient{}
	}

	id, err := machineid.ProtectedID("subtree-cli")
	if err != nil {
		return &NoOpClient{}
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: 100 * time.Millisecond,
		}).DialContext,
		TLSHandshakeTimeout:   100 * time.Millisecond,
		ResponseHeaderTimeout: 100 * time.Millisecond,
	}

	client, err := posthog.NewWithConfig(PostHogAPIKey, posthog.Config{
		Endpoint:           PostHogEndpoint,
		ShutdownTimeout:    100 * time.Millisecond,
		BatchUploadTimeout: 200 * time.Millisecond,
		Transport:          transport,
		Logger:             silentLogger{},
		DisableGeoIP:       posthog.Ptr(true),
		DefaultEventProperties: posthog.NewProperties().
			Set("cli_version", version).
			Set("os", runtime.GOOS).
			Set("arch", runtime.GOARCH),
	})
	if err != nil {
		return &NoOpClient{}
	}

	return &PostHogClient{client: client, machineID: id, cliVersion: version}
}

// TrackCommand records that cmd ran, along with which flags (names only,
// never values) were set.
func (p *PostHogClient) TrackCommand(cmd *cobra.Command) {
	if cmd == nil || cmd.Hidden {
		return
	}
	switch cmd.Name() {
	case "help", "completion":
		return
	}

	p.mu.RLock()
	id := p.machineID
	c := p.client
	p.mu.RUnlock()
	if c == nil {
		return
	}

	var flags []string
	cmd.Flags().Visit(func(flag *pflag.Flag) {
		flags = append(flags, flag.Name)
	})

	props := posthog.NewProperties().Set("command", cmd.CommandPath())
	if len(flags) > 0 {
		props.Set("flags", strings.Join(flags, ","))
	}

	//nolint:errcheck // best-effort telemetry, failures must not affect the CLI
	_ = c.Enqueue(posthog.Capture{
		DistinctId: id,
		Event:      "subtree_command_executed",
		Properties: props,
	})
}

// Close flushes any pending events.
func (p *PostHogClient) Close() {
	p.mu.RLock()
	c := p.client
	p.mu.RUnlock()
	if c != nil {
		_ = c.Close()
	}
}
