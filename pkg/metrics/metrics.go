package metrics

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	otelapi "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const serviceName = "busticket-route-editor"

var (
	// meterProvider is the installed SDK provider, nil when exporting is off
	meterProvider *sdkmetric.MeterProvider

	// Meter is the global meter for creating instruments
	Meter metric.Meter
)

func init() {
	Meter = otelapi.Meter(serviceName)
	// The global delegating meter never fails to create instruments; they
	// record nothing until Init installs the SDK provider, and are swapped
	// for real ones when it does. Call sites never need a nil check.
	_ = initializeInstruments()
}

// Init installs the OTLP metric pipeline when OTEL_METRICS_ENABLED is set.
// Returns a shutdown function that should be called on application exit.
func Init(logger *logrus.Logger) (func(), error) {
	if !isEnabled() {
		logger.Debug("OpenTelemetry metrics disabled, instruments are no-ops")
		return func() {}, nil
	}

	ctx := context.Background()

	exporter, err := newExporter(ctx)
	if err != nil {
		logger.WithError(err).Warn("Failed to create OTLP metric exporter, metrics disabled")
		return func() {}, nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.DeploymentEnvironment(getEnv("ENVIRONMENT", "development")),
	))
	if err != nil {
		return nil, err
	}

	meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter,
				sdkmetric.WithInterval(60*time.Second),
			),
		),
		sdkmetric.WithResource(res),
	)

	// Instruments created in init() against the global meter start
	// recording through this provider from here on.
	otelapi.SetMeterProvider(meterProvider)

	logger.WithFields(logrus.Fields{
		"endpoint": getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		"protocol": getEnv("OTEL_EXPORTER_OTLP_PROTOCOL", "http/protobuf"),
	}).Info("OpenTelemetry metrics initialized")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(ctx); err != nil {
			logger.WithError(err).Error("Error shutting down meter provider")
		}
	}, nil
}

// newExporter builds an OTLP exporter for the configured protocol
func newExporter(ctx context.Context) (sdkmetric.Exporter, error) {
	endpoint := getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	protocol := strings.ToLower(getEnv("OTEL_EXPORTER_OTLP_PROTOCOL", "http/protobuf"))

	if protocol == "grpc" {
		opts := []otlpmetricgrpc.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(stripScheme(endpoint)))
		}
		if !strings.HasPrefix(endpoint, "https://") {
			opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		}
		return otlpmetricgrpc.New(ctx, opts...)
	}

	opts := []otlpmetrichttp.Option{}
	if endpoint != "" {
		opts = append(opts, otlpmetrichttp.WithEndpoint(stripScheme(endpoint)))
	}
	if !strings.HasPrefix(endpoint, "https://") {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	return otlpmetrichttp.New(ctx, opts...)
}

// stripScheme reduces a URL to host:port, which both exporters expect
func stripScheme(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")
	if idx := strings.Index(endpoint, "/"); idx != -1 {
		endpoint = endpoint[:idx]
	}
	return endpoint
}

func isEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("OTEL_METRICS_ENABLED")))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
