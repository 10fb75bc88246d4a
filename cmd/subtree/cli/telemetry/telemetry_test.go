package telemetry

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestNewClientOptOut(t *testing.T) {
	t.Setenv("SUBTREE_TELEMETRY_OPTOUT", "1")
	enabled := true

	client := NewClient("1.0.0", &enabled)

	if _, ok := client.(*NoOpClient); !ok {
		t.Error("SUBTREE_TELEMETRY_OPTOUT=1 should return NoOpClient")
	}
}

func TestNewClientOptOutWithAnyValue(t *testing.T) {
	t.Setenv("SUBTREE_TELEMETRY_OPTOUT", "yes")
	enabled := true

	client := NewClient("1.0.0", &enabled)

	if _, ok := client.(*NoOpClient); !ok {
		t.Error("SUBTREE_TELEMETRY_OPTOUT with any value should return NoOpClient")
	}
}

func TestNewClientTelemetryDisabled(t *testing.T) {
	t.Setenv("SUBTREE_TELEMETRY_OPTOUT", "")
	disabled := false

	client := NewClient("1.0.0", &disabled)

	if _, ok := client.(*NoOpClient); !ok {
		t.Error("telemetryEnabled=false should return NoOpClient")
	}
}

func TestNewClientNilTelemetryDefaultsToDisabled(t *testing.T) {
	t.Setenv("SUBTREE_TELEMETRY_OPTOUT", "")

	client := NewClient("1.0.0", nil)

	if _, ok := client.(*NoOpClient); !ok {
		t.Error("telemetryEnabled=nil should return NoOpClient (disabled by default)")
	}
}

func TestNoOpClientMethods(_ *testing.T) {
	client := &NoOpClient{}

	client.TrackCommand(nil)
	client.TrackCommand(&cobra.Command{Use: "test"})
	client.Close()
}

func TestPostHogClientSkipsHiddenCommands(_ *testing.T) {
	client := &PostHogClient{machineID: "test-id"}

	hiddenCmd := &cobra.Command{Use: "hidden", Hidden: true}

	client.TrackCommand(hiddenCmd)
}

func TestPostHogClientSkipsHelpCommand(_ *testing.T) {
	client := &PostHogClient{machineID: "test-id"}

	client.TrackCommand(&cobra.Command{Use: "help"})
}

func TestPostHogClientSkipsCompletionCommand(_ *testing.T) {
	client := &PostHogClient{machineID: "test-id"}

	client.TrackCommand(&cobra.Command{Use: "completion"})
}

func TestPostHogClientSkipsNilCommand(_ *testing.T) {
	client := &PostHogClient{machineID: "test-id"}

	client.TrackCommand(nil)
}

func TestPostHogClientNoClientIsNoOp(_ *testing.T) {
	client := &PostHogClient{machineID: "test-id"}

	client.TrackCommand(&cobra.Command{Use: "split"})
	client.Close()
}
