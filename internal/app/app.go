package app

import (
	"go.uber.org/fx"

	"github.com/obradorsoft/hornada/internal/cache"
	"github.com/obradorsoft/hornada/internal/config"
	"github.com/obradorsoft/hornada/internal/database"
	"github.com/obradorsoft/hornada/internal/logger"
	"github.com/obradorsoft/hornada/internal/messaging"
	"github.com/obradorsoft/hornada/internal/observability"
	repositorycatalog "github.com/obradorsoft/hornada/internal/repository/catalog"
	repositorydirectory "github.com/obradorsoft/hornada/internal/repository/directory"
	repositoryorder "github.com/obradorsoft/hornada/internal/repository/order"
	repositorytask "github.com/obradorsoft/hornada/internal/repository/task"
	grpcserver "github.com/obradorsoft/hornada/internal/server/grpc"
	httpserver "github.com/obradorsoft/hornada/internal/server/http"
	servicecatalog "github.com/obradorsoft/hornada/internal/service/catalog"
	serviceorder "github.com/obradorsoft/hornada/internal/service/order"
	servicetask "github.com/obradorsoft/hornada/internal/service/task"
	"github.com/obradorsoft/hornada/internal/timepolicy"
	transporthttp "github.com/obradorsoft/hornada/internal/transport/http"
	"github.com/obradorsoft/hornada/internal/worker"
	workertask "github.com/obradorsoft/hornada/internal/worker/task"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	timepolicy.Module,
	repositoryorder.Module,
	repositorytask.Module,
	repositorycatalog.Module,
	repositorydirectory.Module,
	serviceorder.Module,
	servicetask.Module,
	servicecatalog.Module,
)

// HTTP wires the HTTP transport on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	transporthttp.Module,
)

// GRPC adds the gRPC server shell alongside the HTTP transport.
var GRPC = fx.Options(
	HTTP,
	grpcserver.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workertask.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
