package telemetry

import (
    "context"
    "github.com/aleph-zero/canarystack/stack"
    "go.opentelemetry.io/otel/attribute"
    "go.opentelemetry.io/otel/metric"
)

// Observer turns stack events into metrics.
type Observer struct {
    events   metric.Int64Counter
    failures metric.Int64Counter
    capacity metric.Int64Histogram
}

func NewObserver(mp metric.MeterProvider) (*Observer, error) {
    meter := mp.Meter(systemName)

    events, err := meter.Int64Counter("stack.events",
        metric.WithDescription("Capacity changes and lifecycle events of guarded stacks"))
    if err != nil {
        return nil, err
    }
    failures, err := meter.Int64Counter("stack.corruptions",
        metric.WithDescription("Integrity check failures by kind"))
    if err != nil {
        return nil, err
    }
    capacity, err := meter.Int64Histogram("stack.capacity",
        metric.WithDescription("Capacity after a resize"),
        metric.WithUnit("{slot}"))
    if err != nil {
        return nil, err
    }

    return &Observer{events: events, failures: failures, capacity: capacity}, nil
}

func (o *Observer) Observe(e stack.Event) {
    ctx := context.Background()
    attrs := metric.WithAttributes(
        attribute.String("stack.event", e.Type.String()),
        attribute.String("stack.mode", e.Mode.String()))

    o.events.Add(ctx, 1, attrs)
    switch e.Type {
    case stack.EventGrow, stack.EventShrink:
        o.capacity.Record(ctx, int64(e.Capacity), attrs)
    case stack.EventCorruption:
        o.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("stack.error.kind", e.Kind.String())))
    }
}
