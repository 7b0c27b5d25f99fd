package link

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/openbeacn/linkd/internal/config"
	"github.com/openbeacn/linkd/internal/pulse"
)

// The four virtual outputs every link installation provides, plus the
// remapped virtual input over the first output's monitor.
var linkOutputNames = []string{
	"BEACN_Link_Out",
	"BEACN_Link_2_Out",
	"BEACN_Link_3_Out",
	"BEACN_Link_4_Out",
}

const (
	virtualInputName   = "beacn_virtual_input"
	virtualInputMaster = "BEACN_Link_Out.monitor"
)

// Manager provisions and tears down the link's virtual devices through a
// sound-server client. Apart from the initialized flag it holds no state:
// device and module existence live entirely in the server's module table.
type Manager struct {
	cfg    *config.Config
	client pulse.Client

	mu          sync.Mutex
	initialized bool
}

func NewManager(cfg *config.Config, client pulse.Client) *Manager {
	return &Manager{
		cfg:    cfg,
		client: client,
	}
}

// Initialize probes the sound server and unlocks the other operations.
func (m *Manager) Initialize(ctx context.Context) error {
	if err := m.client.CheckServer(ctx); err != nil {
		slog.Error("sound server probe failed", "error", err)
		return fmt.Errorf("initialize: %w", err)
	}
	m.mu.Lock()
	m.initialized = true
	m.mu.Unlock()
	slog.Info("sound server reachable; link manager initialized")
	return nil
}

func (m *Manager) ensureInitialized() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return pulse.ErrNotInitialized
	}
	return nil
}

// Devices enumerates playback sinks followed by capture sources. Listing
// failures degrade to fewer or zero records; the call itself never fails.
func (m *Manager) Devices(ctx context.Context) []pulse.AudioDevice {
	var devices []pulse.AudioDevice

	sinks, err := m.client.ListSinks(ctx)
	if err != nil {
		slog.Warn("sink enumeration failed; continuing with partial result", "error", err)
	}
	devices = append(devices, sinks...)

	sources, err := m.client.ListSources(ctx)
	if err != nil {
		slog.Warn("source enumeration failed; continuing with partial result", "error", err)
	}
	devices = append(devices, sources...)

	slog.Debug("devices enumerated", "sinks", len(sinks), "sources", len(sources))
	return devices
}

// CreateVirtualOutput loads a null sink named after the input and returns the
// module index the server assigned. There is no existence check; the server's
// own policy governs duplicates.
func (m *Manager) CreateVirtualOutput(ctx context.Context, name string) (string, error) {
	if err := m.ensureInitialized(); err != nil {
		return "", err
	}
	if err := validateDeviceName(name); err != nil {
		return "", err
	}
	moduleID, err := m.client.LoadNullSink(ctx, name)
	if err != nil {
		slog.Error("virtual output creation failed", "name", name, "error", err)
		return "", fmt.Errorf("create virtual output %s: %w", name, err)
	}
	slog.Info("virtual output created", "name", name, "module_id", moduleID)
	return moduleID, nil
}

// RouteAudio loads a loopback forwarding a named source into a named sink.
// Neither endpoint is validated; the server reports unknown names itself.
func (m *Manager) RouteAudio(ctx context.Context, source, destination string) (string, error) {
	if err := m.ensureInitialized(); err != nil {
		return "", err
	}
	moduleID, err := m.client.LoadLoopback(ctx, source, destination)
	if err != nil {
		slog.Error("audio route creation failed", "source", source, "destination", destination, "error", err)
		return "", fmt.Errorf("route audio %s -> %s: %w", source, destination, err)
	}
	slog.Info("audio route created", "source", source, "destination", destination, "module_id", moduleID)
	return moduleID, nil
}

// CreateLinkOutputs provisions the fixed four outputs in order, skipping any
// sink that already exists and failing fast on the first creation error.
// Outputs created before a failure are left in place.
func (m *Manager) CreateLinkOutputs(ctx context.Context) error {
	if err := m.ensureInitialized(); err != nil {
		return err
	}
	runID := uuid.NewString()
	slog.Info("provisioning link outputs", "run_id", runID, "outputs", len(linkOutputNames))

	existing := make(map[string]struct{})
	sinks, err := m.client.ListSinks(ctx)
	if err != nil {
		slog.Warn("could not enumerate existing sinks; creating without dedup", "run_id", runID, "error", err)
	}
	for _, sink := range sinks {
		existing[sink.Name] = struct{}{}
	}

	for _, name := range linkOutputNames {
		if _, ok := existing[name]; ok {
			slog.Info("link output already exists; skipping", "run_id", runID, "name", name)
			continue
		}
		if _, err := m.CreateVirtualOutput(ctx, name); err != nil {
			slog.Error("link output provisioning aborted", "run_id", runID, "name", name, "error", err)
			return err
		}
	}
	slog.Info("link outputs provisioned", "run_id", runID)
	return nil
}

// CreateVirtualInput exposes the first link output's monitor as a capture
// source, so applications can record what is played into the link.
func (m *Manager) CreateVirtualInput(ctx context.Context) (string, error) {
	if err := m.ensureInitialized(); err != nil {
		return "", err
	}
	moduleID, err := m.client.LoadRemapSource(ctx, virtualInputMaster, virtualInputName)
	if err != nil {
		slog.Error("virtual input creation failed", "name", virtualInputName, "error", err)
		return "", fmt.Errorf("create virtual input: %w", err)
	}
	slog.Info("virtual input created", "name", virtualInputName, "module_id", moduleID)
	return moduleID, nil
}

// SetVolume sets a sink's volume. Volume is a fraction in [0, 1].
func (m *Manager) SetVolume(ctx context.Context, name string, volume float64) error {
	if err := m.ensureInitialized(); err != nil {
		return err
	}
	if volume < 0 || volume > 1 {
		return fmt.Errorf("%w: %v", pulse.ErrVolumeOutOfRange, volume)
	}
	if err := m.client.SetSinkVolume(ctx, name, volume); err != nil {
		return fmt.Errorf("set volume on %s: %w", name, err)
	}
	slog.Info("volume set", "name", name, "volume", volume)
	return nil
}

// SetMute sets a sink's mute state.
func (m *Manager) SetMute(ctx context.Context, name string, muted bool) error {
	if err := m.ensureInitialized(); err != nil {
		return err
	}
	if err := m.client.SetSinkMute(ctx, name, muted); err != nil {
		return fmt.Errorf("set mute on %s: %w", name, err)
	}
	slog.Info("mute set", "name", name, "muted", muted)
	return nil
}

// DeviceStatus reads a sink's current volume and mute state.
func (m *Manager) DeviceStatus(ctx context.Context, name string) (pulse.DeviceStatus, error) {
	if err := m.ensureInitialized(); err != nil {
		return pulse.DeviceStatus{}, err
	}
	volume, err := m.client.GetSinkVolume(ctx, name)
	if err != nil {
		return pulse.DeviceStatus{}, fmt.Errorf("device status for %s: %w", name, err)
	}
	muted, err := m.client.GetSinkMuted(ctx, name)
	if err != nil {
		return pulse.DeviceStatus{}, fmt.Errorf("device status for %s: %w", name, err)
	}
	return pulse.DeviceStatus{Name: name, Volume: volume, Muted: muted}, nil
}

// Cleanup unloads every module whose listing row mentions the configured link
// match, ignoring individual unload failures. It never fails: a cleanup pass
// that could not list modules simply unloads nothing. The return value is the
// number of modules it attempted to unload.
func (m *Manager) Cleanup(ctx context.Context) int {
	runID := uuid.NewString()
	match := strings.ToLower(m.cfg.LinkModuleMatch)

	modules, err := m.client.ListModules(ctx)
	if err != nil {
		slog.Warn("module listing failed; nothing to clean up", "run_id", runID, "error", err)
		return 0
	}

	attempted := 0
	for _, module := range modules {
		row := strings.ToLower(module.ID + "\t" + module.Name + "\t" + module.Argument)
		if !strings.Contains(row, match) {
			continue
		}
		attempted++
		if err := m.client.UnloadModule(ctx, module.ID); err != nil {
			slog.Warn("module unload failed; continuing", "run_id", runID, "module_id", module.ID, "error", err)
			continue
		}
		slog.Info("module unloaded", "run_id", runID, "module_id", module.ID, "module_name", module.Name)
	}
	slog.Info("cleanup finished", "run_id", runID, "attempted", attempted)
	return attempted
}

// LinkOutputNames returns the fixed output set in creation order.
func LinkOutputNames() []string {
	names := make([]string, len(linkOutputNames))
	copy(names, linkOutputNames)
	return names
}

func validateDeviceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", pulse.ErrInvalidDeviceName)
	}
	if strings.ContainsAny(name, " \t\n\"'=") {
		return fmt.Errorf("%w: %q contains whitespace or quoting characters", pulse.ErrInvalidDeviceName, name)
	}
	return nil
}
