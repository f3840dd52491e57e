package ws

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/LLIEPJIOK/stnet/pkg/ws"

func defaultTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// traceUpdate оборачивает один проход по готовым завершениям в span.
func traceUpdate(tracer trace.Tracer, name string, poll func() (int, error)) (int, error) {
	_, span := tracer.Start(context.Background(), name)
	defer span.End()

	n, err := poll()
	span.SetAttributes(attribute.Int("stnet.events", n))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return n, err
}
