package directory

import "go.uber.org/fx"

// Module provides the user directory repository to Fx.
var Module = fx.Provide(NewRepository)
