package app

import (
	"github.com/vk/h2integrate/internal/registry"
	"github.com/vk/h2integrate/modules/ammonia"
	"github.com/vk/h2integrate/modules/co2"
	"github.com/vk/h2integrate/modules/controllers"
	"github.com/vk/h2integrate/modules/electrolyzer"
	"github.com/vk/h2integrate/modules/hopp"
	"github.com/vk/h2integrate/modules/hydro"
	"github.com/vk/h2integrate/modules/methanol"
	"github.com/vk/h2integrate/modules/solar"
	"github.com/vk/h2integrate/modules/steel"
	"github.com/vk/h2integrate/modules/storage"
	"github.com/vk/h2integrate/modules/transport"
	"github.com/vk/h2integrate/modules/wind"
)

// coreModules is the definitive list of all modules that are compiled into
// the h2integrate binary.
var coreModules = []registry.Module{
	&ammonia.Module{},
	&co2.Module{},
	&controllers.Module{},
	&electrolyzer.Module{},
	&hopp.Module{},
	&hydro.Module{},
	&methanol.Module{},
	&solar.Module{},
	&steel.Module{},
	&storage.Module{},
	&transport.Module{},
	&wind.Module{},
}
