package runtime

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/switchboard/pkg/domain"
)

func (e *Engine) startSpan(ctx context.Context, cp *domain.Checkpoint, node string) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, "switchboard.node "+node,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("switchboard.session_id", cp.SessionID),
			attribute.String("switchboard.node", node),
			attribute.Int("switchboard.step", cp.Step),
			attribute.Int("switchboard.turn", cp.Turn),
		),
	)
}

func endSpan(span trace.Span, produced int, err error) {
	span.SetAttributes(attribute.Int("switchboard.messages_produced", produced))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
