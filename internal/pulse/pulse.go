package pulse

import "context"

// AudioDevice is one playback sink or capture source as reported by the
// sound server at enumeration time. ID is the server's numeric index; it is
// only stable within the current snapshot.
type AudioDevice struct {
	ID          string
	Name        string
	Description string
	IsOutput    bool
}

// Module is one row of the server's loaded-module table. Argument carries the
// text the module was loaded with (e.g. "sink_name=BEACN_Link_Out ...").
type Module struct {
	ID       string
	Name     string
	Argument string
}

// DeviceStatus reports the current volume and mute state of a sink.
type DeviceStatus struct {
	Name   string
	Volume float64
	Muted  bool
}

// Client is the control surface a sound-server backend must provide.
type Client interface {
	CheckServer(ctx context.Context) error
	ListSinks(ctx context.Context) ([]AudioDevice, error)
	ListSources(ctx context.Context) ([]AudioDevice, error)
	ListModules(ctx context.Context) ([]Module, error)
	LoadNullSink(ctx context.Context, sinkName string) (moduleID string, err error)
	LoadLoopback(ctx context.Context, source, sink string) (moduleID string, err error)
	LoadRemapSource(ctx context.Context, master, sourceName string) (moduleID string, err error)
	UnloadModule(ctx context.Context, moduleID string) error
	SetSinkVolume(ctx context.Context, sinkName string, volume float64) error
	SetSinkMute(ctx context.Context, sinkName string, muted bool) error
	GetSinkVolume(ctx context.Context, sinkName string) (float64, error)
	GetSinkMuted(ctx context.Context, sinkName string) (bool, error)
}
