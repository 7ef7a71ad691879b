package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	invoiceWrites    metric.Int64Counter
	sequenceAllocs   metric.Int64Counter
	txRollbacks      metric.Int64Counter
	writeDurationMs  metric.Float64Histogram
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "faktur"
	}
	meter := provider.Meter(name)

	invoiceWrites, err := meter.Int64Counter("faktur_invoice_writes_total")
	if err != nil {
		return nil, err
	}
	sequenceAllocs, err := meter.Int64Counter("faktur_sequence_allocations_total")
	if err != nil {
		return nil, err
	}
	txRollbacks, err := meter.Int64Counter("faktur_tx_rollbacks_total")
	if err != nil {
		return nil, err
	}
	writeDurationMs, err := meter.Float64Histogram("faktur_invoice_write_duration_ms")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		invoiceWrites:   invoiceWrites,
		sequenceAllocs:  sequenceAllocs,
		txRollbacks:     txRollbacks,
		writeDurationMs: writeDurationMs,
	}, nil
}

// RecordInvoiceWrite counts a committed create, update or delete.
func (m *Metrics) RecordInvoiceWrite(ctx context.Context, operation string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("operation", strings.TrimSpace(operation)))
	m.invoiceWrites.Add(ctx, 1, attrs)
	m.writeDurationMs.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordSequenceAllocation counts one issued invoice number.
func (m *Metrics) RecordSequenceAllocation(ctx context.Context, year int) {
	if m == nil {
		return
	}
	m.sequenceAllocs.Add(ctx, 1, metric.WithAttributes(attribute.Int("year", year)))
}

// RecordRollback counts a rolled-back transaction.
func (m *Metrics) RecordRollback(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.txRollbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", strings.TrimSpace(operation))))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(ctx, opts...)
	case "", "grpc":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported otlp protocol %q", protocol)
	}
}
