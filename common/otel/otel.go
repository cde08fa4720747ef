package otel

import (
	"context"
	"log"

	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

var Tracer trace.Tracer = otel.Tracer("stall-booking")

// InitTracerProvider wires the otlp grpc exporter and registers the global
// provider. The returned shutdown func flushes pending spans.
func InitTracerProvider(ctx context.Context, cfg *viper.Viper) func(context.Context) error {
	if !cfg.GetBool("otel.enabled") {
		return func(context.Context) error { return nil }
	}

	conn, err := grpc.NewClient(cfg.GetString("otel.endpoint"),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		log.Fatalln("failed to dial otlp collector", err)
	}

	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		log.Fatalln("failed to create otlp exporter", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName("stall-booking")),
	)
	if err != nil {
		log.Fatalln("failed to create otel resource", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	Tracer = tp.Tracer("stall-booking")

	return tp.Shutdown
}
