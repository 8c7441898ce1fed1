package client

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/antarena/antclient/internal/client"

type meters struct {
	turns  metric.Int64Counter
	decode metric.Float64Histogram
	decide metric.Float64Histogram
}

// newMeters creates the turn instruments on the global meter. An instrument
// that cannot be created is left nil and skipped.
func newMeters(log *slog.Logger) *meters {
	m := otel.Meter(instrumentationName)
	out := &meters{}

	var err error
	out.turns, err = m.Int64Counter(
		"client.turns",
		metric.WithDescription("Turns answered"),
	)
	if err != nil {
		log.Warn("Failed to create turn counter", "error", err)
	}

	out.decode, err = m.Float64Histogram(
		"client.turn.decode_ms",
		metric.WithDescription("Time spent reading and decoding a snapshot"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		log.Warn("Failed to create decode histogram", "error", err)
	}

	out.decide, err = m.Float64Histogram(
		"client.turn.decide_ms",
		metric.WithDescription("Time spent computing commands"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		log.Warn("Failed to create decide histogram", "error", err)
	}

	return out
}

func (m *meters) recordTurn(decode, decide time.Duration) {
	ctx := context.Background()
	if m.turns != nil {
		m.turns.Add(ctx, 1)
	}
	if m.decode != nil {
		m.decode.Record(ctx, durationMs(decode))
	}
	if m.decide != nil {
		m.decide.Record(ctx, durationMs(decide))
	}
}
