package pulse

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/openbeacn/linkd/internal/pulse"
)

type recordedCall struct {
	name string
	args []string
}

type fakeRunner struct {
	calls   []recordedCall
	outputs map[string][]byte
	errs    map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		outputs: make(map[string][]byte),
		errs:    make(map[string]error),
	}
}

func callKey(name string, args []string) string {
	key := name
	for _, a := range args {
		key += " " + a
	}
	return key
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, recordedCall{name: name, args: args})
	key := callKey(name, args)
	if err, ok := r.errs[key]; ok {
		return nil, err
	}
	return r.outputs[key], nil
}

func newTestClient(runner *fakeRunner) pulse.Client {
	return NewPactlClient("pactl", "pulseaudio", runner)
}

func TestListSinks_ParsesShortOutput(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs["pactl list short sinks"] = []byte(
		"0\talsa_output.pci.analog-stereo\tmodule-alsa-card.c\ts16le 2ch 44100Hz\tRUNNING\n" +
			"23\tBEACN_Link_Out\tmodule-null-sink.c\tfloat32le 2ch 48000Hz\tIDLE\n")

	sinks, err := newTestClient(runner).ListSinks(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(sinks) != 2 {
		t.Fatalf("expected 2 sinks, got %d", len(sinks))
	}
	if sinks[0].ID != "0" || sinks[0].Name != "alsa_output.pci.analog-stereo" {
		t.Fatalf("unexpected first sink: %+v", sinks[0])
	}
	if sinks[0].Description != "module-alsa-card.c" {
		t.Fatalf("unexpected description: %q", sinks[0].Description)
	}
	if !sinks[0].IsOutput || !sinks[1].IsOutput {
		t.Fatal("sinks must be marked as outputs")
	}
}

func TestListSources_MarksInputs(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs["pactl list short sources"] = []byte(
		"1\talsa_input.pci.analog-stereo\tmodule-alsa-card.c\n")

	sources, err := newTestClient(runner).ListSources(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(sources) != 1 {
		t.Fatalf("expected 1 source, got %d", len(sources))
	}
	if sources[0].IsOutput {
		t.Fatal("sources must not be marked as outputs")
	}
}

func TestParseShortDevices_SkipsShortLines(t *testing.T) {
	out := []byte("0\tgood_sink\tdesc\nmalformed-no-tabs\n\n1\tanother_sink\n")
	devices := parseShortDevices(out, true)
	if len(devices) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(devices))
	}
	if devices[1].Name != "another_sink" || devices[1].Description != "" {
		t.Fatalf("unexpected second device: %+v", devices[1])
	}
}

func TestLoadNullSink_CommandShapeAndModuleID(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs[callKey("pactl", []string{
		"load-module", "module-null-sink",
		"sink_name=BEACN_Link_Out",
		`sink_properties=device.description="BEACN_Link_Out"`,
	})] = []byte("536870913\n")

	moduleID, err := newTestClient(runner).LoadNullSink(context.Background(), "BEACN_Link_Out")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if moduleID != "536870913" {
		t.Fatalf("unexpected module id: %q", moduleID)
	}

	call := runner.calls[0]
	found := false
	for _, arg := range call.args {
		if arg == "sink_name=BEACN_Link_Out" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a sink_name argument, got %v", call.args)
	}
}

func TestLoadNullSink_EmptyStdoutIsMalformed(t *testing.T) {
	runner := newFakeRunner()
	_, err := newTestClient(runner).LoadNullSink(context.Background(), "BEACN_Link_Out")
	if !errors.Is(err, pulse.ErrMalformedOutput) {
		t.Fatalf("expected ErrMalformedOutput, got %v", err)
	}
}

func TestLoadLoopback_CommandShape(t *testing.T) {
	runner := newFakeRunner()
	key := callKey("pactl", []string{
		"load-module", "module-loopback",
		"source=mic_in", "sink=BEACN_Link_Out",
	})
	runner.outputs[key] = []byte("42\n")

	moduleID, err := newTestClient(runner).LoadLoopback(context.Background(), "mic_in", "BEACN_Link_Out")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if moduleID != "42" {
		t.Fatalf("unexpected module id: %q", moduleID)
	}
}

func TestClassify_ConnectionRefusedIsUnreachable(t *testing.T) {
	runner := newFakeRunner()
	runner.errs["pactl list short sinks"] = &RunError{ExitCode: 1, Stderr: "Connection failure: Connection refused"}

	_, err := newTestClient(runner).ListSinks(context.Background())
	if !errors.Is(err, pulse.ErrServerUnreachable) {
		t.Fatalf("expected ErrServerUnreachable, got %v", err)
	}
}

func TestClassify_OtherExitIsRejected(t *testing.T) {
	runner := newFakeRunner()
	runner.errs[callKey("pactl", []string{
		"load-module", "module-null-sink",
		"sink_name=x",
		`sink_properties=device.description="x"`,
	})] = &RunError{ExitCode: 1, Stderr: "Failure: Module initialization failed"}

	_, err := newTestClient(runner).LoadNullSink(context.Background(), "x")
	if !errors.Is(err, pulse.ErrModuleRejected) {
		t.Fatalf("expected ErrModuleRejected, got %v", err)
	}
}

func TestClassify_SpawnFailureIsUnreachable(t *testing.T) {
	runner := newFakeRunner()
	runner.errs["pulseaudio --check"] = fmt.Errorf("exec: %q: executable file not found in $PATH", "pulseaudio")

	err := newTestClient(runner).CheckServer(context.Background())
	if !errors.Is(err, pulse.ErrServerUnreachable) {
		t.Fatalf("expected ErrServerUnreachable, got %v", err)
	}
}

func TestSetSinkVolume_FormatsPercent(t *testing.T) {
	runner := newFakeRunner()
	if err := newTestClient(runner).SetSinkVolume(context.Background(), "BEACN_Link_Out", 0.75); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	call := runner.calls[0]
	want := []string{"set-sink-volume", "BEACN_Link_Out", "75%"}
	if len(call.args) != len(want) {
		t.Fatalf("unexpected args: %v", call.args)
	}
	for i := range want {
		if call.args[i] != want[i] {
			t.Fatalf("unexpected args: %v", call.args)
		}
	}
}

func TestGetSinkVolume_ParsesFirstPercentage(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs["pactl get-sink-volume BEACN_Link_Out"] = []byte(
		"Volume: front-left: 42598 / 65% / -11.22 dB,   front-right: 42598 / 65% / -11.22 dB\n")

	volume, err := newTestClient(runner).GetSinkVolume(context.Background(), "BEACN_Link_Out")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if volume != 0.65 {
		t.Fatalf("expected 0.65, got %v", volume)
	}
}

func TestGetSinkVolume_MalformedOutput(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs["pactl get-sink-volume BEACN_Link_Out"] = []byte("garbage\n")

	_, err := newTestClient(runner).GetSinkVolume(context.Background(), "BEACN_Link_Out")
	if !errors.Is(err, pulse.ErrMalformedOutput) {
		t.Fatalf("expected ErrMalformedOutput, got %v", err)
	}
}

func TestGetSinkMuted_ParsesYesNo(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs["pactl get-sink-mute BEACN_Link_Out"] = []byte("Mute: yes\n")

	muted, err := newTestClient(runner).GetSinkMuted(context.Background(), "BEACN_Link_Out")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !muted {
		t.Fatal("expected muted")
	}

	runner.outputs["pactl get-sink-mute BEACN_Link_Out"] = []byte("Mute: no\n")
	muted, err = newTestClient(runner).GetSinkMuted(context.Background(), "BEACN_Link_Out")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if muted {
		t.Fatal("expected unmuted")
	}
}

func TestListModules_ParsesRows(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs["pactl list short modules"] = []byte(
		"5\tmodule-null-sink\tsink_name=BEACN_Link_Out\n" +
			"6\tmodule-alsa-card\tdevice_id=0\n")

	modules, err := newTestClient(runner).ListModules(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(modules))
	}
	if modules[0].ID != "5" || modules[0].Name != "module-null-sink" || modules[0].Argument != "sink_name=BEACN_Link_Out" {
		t.Fatalf("unexpected first module: %+v", modules[0])
	}
}
