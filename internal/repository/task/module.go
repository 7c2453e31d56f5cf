package task

import "go.uber.org/fx"

// Module provides the task repository to Fx.
var Module = fx.Provide(NewRepository)
