package catalog

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"vehicle-catalog/internal/telemetry"
)

type InstrumentedCollection struct {
	*Collection
	telemetry *telemetry.Provider

	// Metrics
	operations        metric.Int64Counter
	operationDuration metric.Float64Histogram
	sizeGauge         metric.Int64UpDownCounter
}

func NewInstrumentedCollection(c *Collection, tp *telemetry.Provider) (*InstrumentedCollection, error) {
	meter := tp.Meter()

	operations, err := meter.Int64Counter("catalog_operations_total",
		metric.WithDescription("Total number of catalog operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("catalog_operation_duration_seconds",
		metric.WithDescription("Duration of catalog operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	sizeGauge, err := meter.Int64UpDownCounter("catalog_size",
		metric.WithDescription("Current number of vehicles in the catalog"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	ic := &InstrumentedCollection{
		Collection:        c,
		telemetry:         tp,
		operations:        operations,
		operationDuration: operationDuration,
		sizeGauge:         sizeGauge,
	}

	// Seed the gauge with whatever was loaded.
	sizeGauge.Add(context.Background(), int64(c.Size()))

	return ic, nil
}

func (ic *InstrumentedCollection) Add(ctx context.Context, v Vehicle) error {
	ctx, span := ic.telemetry.Tracer().Start(ctx, "catalog.add",
		trace.WithAttributes(
			attribute.String("vehicle.plate", v.Plate()),
			attribute.String("vehicle.make", v.Make()),
			attribute.String("vehicle.model", v.Model()),
		))
	defer span.End()

	start := time.Now()
	err := ic.Collection.Add(v)

	status := "success"
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		status = "failed"
		if errors.Is(err, ErrDuplicateValue) {
			status = "duplicate"
		}
	} else {
		span.AddEvent("vehicle_added")
		ic.sizeGauge.Add(ctx, 1)
	}

	ic.record(ctx, "add", status, start)
	return err
}

func (ic *InstrumentedCollection) Delete(ctx context.Context, plate string) bool {
	ctx, span := ic.telemetry.Tracer().Start(ctx, "catalog.delete",
		trace.WithAttributes(attribute.String("vehicle.plate", plate)))
	defer span.End()

	start := time.Now()
	deleted := ic.Collection.Delete(plate)

	status := "not_found"
	if deleted {
		status = "success"
		span.AddEvent("vehicle_deleted")
		ic.sizeGauge.Add(ctx, -1)
	}
	span.SetAttributes(attribute.Bool("catalog.deleted", deleted))

	ic.record(ctx, "delete", status, start)
	return deleted
}

func (ic *InstrumentedCollection) FindByPlate(ctx context.Context, plate string) (Vehicle, bool) {
	ctx, span := ic.telemetry.Tracer().Start(ctx, "catalog.find_by_plate",
		trace.WithAttributes(attribute.String("vehicle.plate", plate)))
	defer span.End()

	start := time.Now()
	v, ok := ic.Collection.FindByPlate(plate)

	status := "not_found"
	if ok {
		status = "found"
		span.AddEvent("vehicle_found")
	}

	ic.record(ctx, "find_by_plate", status, start)
	return v, ok
}

// Filter runs pred over the catalog. name only labels the span.
func (ic *InstrumentedCollection) Filter(ctx context.Context, name string, pred Predicate) *Collection {
	ctx, span := ic.telemetry.Tracer().Start(ctx, "catalog.filter",
		trace.WithAttributes(attribute.String("filter.name", name)))
	defer span.End()

	start := time.Now()
	found := ic.Collection.Filter(pred)

	span.SetAttributes(
		attribute.Int("filter.matches", found.Size()),
		attribute.Int("catalog.size", ic.Collection.Size()),
	)

	ic.record(ctx, "filter", "success", start)
	return found
}

func (ic *InstrumentedCollection) SetDate(ctx context.Context, plate, date string) (bool, error) {
	ctx, span := ic.telemetry.Tracer().Start(ctx, "catalog.set_date",
		trace.WithAttributes(
			attribute.String("vehicle.plate", plate),
			attribute.String("vehicle.date", date),
		))
	defer span.End()

	start := time.Now()
	found, err := ic.Collection.SetDate(plate, date)

	status := "success"
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		status = "failed"
	case !found:
		status = "not_found"
	}

	ic.record(ctx, "set_date", status, start)
	return found, err
}

func (ic *InstrumentedCollection) record(ctx context.Context, operation, status string, start time.Time) {
	labels := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
	ic.operations.Add(ctx, 1, labels)
	ic.operationDuration.Record(ctx, time.Since(start).Seconds(), labels)
}
