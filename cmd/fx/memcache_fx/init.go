package memcache_fx

import (
	"go.uber.org/fx"

	mem "tickethub/pkg/memcache"
)

var Module = fx.Provide(
	mem.NewFlightRegistry,
)
