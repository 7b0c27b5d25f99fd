package pulse

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/openbeacn/linkd/internal/pulse"
)

// PactlClient implements pulse.Client by shelling out to the pactl control
// tool. Listings come back as tab-separated rows; load-module prints the new
// module index on stdout.
type PactlClient struct {
	pactlBinary      string
	pulseaudioBinary string
	runner           CommandRunner
}

func NewPactlClient(pactlBinary, pulseaudioBinary string, runner CommandRunner) pulse.Client {
	return &PactlClient{
		pactlBinary:      pactlBinary,
		pulseaudioBinary: pulseaudioBinary,
		runner:           runner,
	}
}

func (c *PactlClient) CheckServer(ctx context.Context) error {
	if _, err := c.runner.Run(ctx, c.pulseaudioBinary, "--check"); err != nil {
		return fmt.Errorf("%w: %v", pulse.ErrServerUnreachable, err)
	}
	return nil
}

func (c *PactlClient) ListSinks(ctx context.Context) ([]pulse.AudioDevice, error) {
	out, err := c.runner.Run(ctx, c.pactlBinary, "list", "short", "sinks")
	if err != nil {
		return nil, c.classify(err)
	}
	return parseShortDevices(out, true), nil
}

func (c *PactlClient) ListSources(ctx context.Context) ([]pulse.AudioDevice, error) {
	out, err := c.runner.Run(ctx, c.pactlBinary, "list", "short", "sources")
	if err != nil {
		return nil, c.classify(err)
	}
	return parseShortDevices(out, false), nil
}

func (c *PactlClient) ListModules(ctx context.Context) ([]pulse.Module, error) {
	out, err := c.runner.Run(ctx, c.pactlBinary, "list", "short", "modules")
	if err != nil {
		return nil, c.classify(err)
	}
	return parseShortModules(out), nil
}

func (c *PactlClient) LoadNullSink(ctx context.Context, sinkName string) (string, error) {
	return c.loadModule(ctx,
		"module-null-sink",
		fmt.Sprintf("sink_name=%s", sinkName),
		fmt.Sprintf("sink_properties=device.description=%q", sinkName),
	)
}

func (c *PactlClient) LoadLoopback(ctx context.Context, source, sink string) (string, error) {
	return c.loadModule(ctx,
		"module-loopback",
		fmt.Sprintf("source=%s", source),
		fmt.Sprintf("sink=%s", sink),
	)
}

func (c *PactlClient) LoadRemapSource(ctx context.Context, master, sourceName string) (string, error) {
	return c.loadModule(ctx,
		"module-remap-source",
		fmt.Sprintf("master=%s", master),
		fmt.Sprintf("source_name=%s", sourceName),
	)
}

func (c *PactlClient) loadModule(ctx context.Context, moduleName string, moduleArgs ...string) (string, error) {
	args := append([]string{"load-module", moduleName}, moduleArgs...)
	out, err := c.runner.Run(ctx, c.pactlBinary, args...)
	if err != nil {
		return "", c.classify(err)
	}
	moduleID := strings.TrimSpace(string(out))
	if moduleID == "" {
		return "", fmt.Errorf("%w: load-module %s printed no module index", pulse.ErrMalformedOutput, moduleName)
	}
	return moduleID, nil
}

func (c *PactlClient) UnloadModule(ctx context.Context, moduleID string) error {
	if _, err := c.runner.Run(ctx, c.pactlBinary, "unload-module", moduleID); err != nil {
		return c.classify(err)
	}
	return nil
}

func (c *PactlClient) SetSinkVolume(ctx context.Context, sinkName string, volume float64) error {
	percent := fmt.Sprintf("%d%%", int(math.Round(volume*100)))
	if _, err := c.runner.Run(ctx, c.pactlBinary, "set-sink-volume", sinkName, percent); err != nil {
		return c.classify(err)
	}
	return nil
}

func (c *PactlClient) SetSinkMute(ctx context.Context, sinkName string, muted bool) error {
	arg := "0"
	if muted {
		arg = "1"
	}
	if _, err := c.runner.Run(ctx, c.pactlBinary, "set-sink-mute", sinkName, arg); err != nil {
		return c.classify(err)
	}
	return nil
}

func (c *PactlClient) GetSinkVolume(ctx context.Context, sinkName string) (float64, error) {
	out, err := c.runner.Run(ctx, c.pactlBinary, "get-sink-volume", sinkName)
	if err != nil {
		return 0, c.classify(err)
	}
	return parseVolume(out)
}

func (c *PactlClient) GetSinkMuted(ctx context.Context, sinkName string) (bool, error) {
	out, err := c.runner.Run(ctx, c.pactlBinary, "get-sink-mute", sinkName)
	if err != nil {
		return false, c.classify(err)
	}
	return parseMute(out)
}

// classify maps a runner failure to the domain error set: a command that
// never started or one the server refused to talk to means the server is
// unreachable, any other non-zero exit means the server rejected the request.
func (c *PactlClient) classify(err error) error {
	var runErr *RunError
	if !errors.As(err, &runErr) {
		return fmt.Errorf("%w: %v", pulse.ErrServerUnreachable, err)
	}
	stderr := strings.TrimSpace(runErr.Stderr)
	if strings.Contains(stderr, "Connection refused") || strings.Contains(stderr, "Connection failure") {
		return fmt.Errorf("%w: %s", pulse.ErrServerUnreachable, stderr)
	}
	return fmt.Errorf("%w: %s", pulse.ErrModuleRejected, stderr)
}

// parseShortDevices decodes `pactl list short ...` output: one device per
// line, fields separated by tabs, index first then name then driver. Lines
// with fewer than two fields are skipped.
func parseShortDevices(out []byte, isOutput bool) []pulse.AudioDevice {
	var devices []pulse.AudioDevice
	for _, line := range strings.Split(string(out), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			continue
		}
		device := pulse.AudioDevice{
			ID:       parts[0],
			Name:     parts[1],
			IsOutput: isOutput,
		}
		if len(parts) >= 3 {
			device.Description = parts[2]
		}
		devices = append(devices, device)
	}
	return devices
}

func parseShortModules(out []byte) []pulse.Module {
	var modules []pulse.Module
	for _, line := range strings.Split(string(out), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			continue
		}
		module := pulse.Module{
			ID:   parts[0],
			Name: parts[1],
		}
		if len(parts) >= 3 {
			module.Argument = parts[2]
		}
		modules = append(modules, module)
	}
	return modules
}

// parseVolume reads the first percentage token out of get-sink-volume output,
// e.g. "Volume: front-left: 65536 / 100% / 0.00 dB, ...".
func parseVolume(out []byte) (float64, error) {
	for _, field := range strings.Fields(string(out)) {
		if !strings.HasSuffix(field, "%") {
			continue
		}
		percent, err := strconv.Atoi(strings.TrimSuffix(field, "%"))
		if err != nil {
			continue
		}
		return float64(percent) / 100, nil
	}
	return 0, fmt.Errorf("%w: no percentage in volume output %q", pulse.ErrMalformedOutput, strings.TrimSpace(string(out)))
}

// parseMute reads "Mute: yes" / "Mute: no".
func parseMute(out []byte) (bool, error) {
	fields := strings.Fields(string(out))
	for i, field := range fields {
		if field != "Mute:" || i+1 >= len(fields) {
			continue
		}
		switch fields[i+1] {
		case "yes":
			return true, nil
		case "no":
			return false, nil
		}
	}
	return false, fmt.Errorf("%w: unexpected mute output %q", pulse.ErrMalformedOutput, strings.TrimSpace(string(out)))
}
