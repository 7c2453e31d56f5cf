package http

import (
	"go.uber.org/fx"

	catalogtransport "github.com/obradorsoft/hornada/internal/transport/http/catalog"
	ordertransport "github.com/obradorsoft/hornada/internal/transport/http/order"
	tasktransport "github.com/obradorsoft/hornada/internal/transport/http/task"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	ordertransport.Module,
	tasktransport.Module,
	catalogtransport.Module,
)
