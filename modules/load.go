package modules

import (
	"github.com/meridian-hq/meridian/modules/core"
	"github.com/meridian-hq/meridian/pkg/application"
)

var BuiltInModules = []application.Module{
	core.NewModule(),
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
