package task

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/obradorsoft/hornada/internal/cache"
	"github.com/obradorsoft/hornada/internal/config"
	"github.com/obradorsoft/hornada/internal/messaging"
	orderservice "github.com/obradorsoft/hornada/internal/service/order"
	taskservice "github.com/obradorsoft/hornada/internal/service/task"
	"github.com/obradorsoft/hornada/internal/worker"
)

var workerTracer = otel.Tracer("github.com/obradorsoft/hornada/worker/task")

// Module registers lifecycle worker handlers.
var Module = fx.Module("worker_task",
	fx.Provide(
		fx.Annotate(
			NewLifecycleHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewLifecycleHandler consumes order/task lifecycle events: logs each
// one and drops the cached order when its task moves, so stale totals
// and states never outlive a transition.
func NewLifecycleHandler(logger *zap.Logger, cfg config.Config, store cache.Store) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.lifecycle.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var envelope messaging.Envelope
		if err := json.Unmarshal(msg.Value, &envelope); err != nil {
			logger.Error("failed to decode lifecycle envelope", zap.Error(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}

		switch envelope.Type {
		case messaging.EventOrderCreated:
			var event orderservice.OrderCreatedEvent
			if err := json.Unmarshal(envelope.Payload, &event); err != nil {
				span.RecordError(err)
				return err
			}
			logger.Info("order created event processed",
				zap.String("order_id", event.ID),
				zap.String("branch_id", event.BranchID),
				zap.Bool("out_of_window", event.OutOfWindow),
				zap.Time("production_date", event.ProductionDate),
			)
		case messaging.EventTaskStateChanged:
			var event taskservice.TaskStateChangedEvent
			if err := json.Unmarshal(envelope.Payload, &event); err != nil {
				span.RecordError(err)
				return err
			}
			if store != nil {
				if err := store.Delete(ctx, fmt.Sprintf("orders:%s", event.OrderID)); err != nil {
					logger.Warn("drop cached order failed", zap.String("order_id", event.OrderID), zap.Error(err))
				}
			}
			logger.Info("task state change processed",
				zap.String("task_id", event.TaskID),
				zap.String("order_id", event.OrderID),
				zap.String("previous_state", string(event.PreviousState)),
				zap.String("new_state", string(event.NewState)),
			)
		default:
			logger.Warn("unknown lifecycle event type", zap.String("type", envelope.Type))
		}

		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}
