package pulse

import (
	"github.com/openbeacn/linkd/internal/config"
	"github.com/openbeacn/linkd/internal/pulse"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (pulse.Client, error) {
		c := do.MustInvoke[*config.Config](i)
		runner := NewExecRunner(c.CommandTimeout())
		return NewPactlClient(c.PactlBinary, c.PulseAudioBinary, runner), nil
	})
}
