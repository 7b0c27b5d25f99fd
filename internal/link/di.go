package link

import (
	"github.com/openbeacn/linkd/internal/config"
	"github.com/openbeacn/linkd/internal/pulse"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		cfg := do.MustInvoke[*config.Config](i)
		client := do.MustInvoke[pulse.Client](i)
		return NewManager(cfg, client), nil
	})
}
