package fn

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "github.com/WessleyAI/ifcgraph/pkg/fn"

// Stage is a function that transforms In to Out within a context.
type Stage[In, Out any] func(context.Context, In) Result[Out]

// Then composes two stages, short-circuiting on error.
func Then[A, B, C any](first Stage[A, B], second Stage[B, C]) Stage[A, C] {
	return func(ctx context.Context, a A) Result[C] {
		r := first(ctx, a)
		v, err := r.Unwrap()
		if r.IsErr() {
			return Err[C](err)
		}
		if err := ctx.Err(); err != nil {
			return Err[C](err)
		}
		return second(ctx, v)
	}
}

// TracedStage runs stage inside a span named name. A failed stage marks the
// span as an error.
func TracedStage[In, Out any](name string, stage Stage[In, Out]) Stage[In, Out] {
	return func(ctx context.Context, in In) Result[Out] {
		ctx, span := otel.Tracer(tracerName).Start(ctx, name)
		defer span.End()
		result := stage(ctx, in)
		if _, err := result.Unwrap(); result.IsErr() {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return result
	}
}

// LoggedTap returns a pass-through stage that logs stage.enter.
func LoggedTap[T any](name string, log *slog.Logger) Stage[T, T] {
	return func(_ context.Context, t T) Result[T] {
		log.Info("stage.enter", "stage", name)
		return Ok(t)
	}
}

// Timed wraps stage and logs stage.exit with its duration and outcome.
func Timed[In, Out any](name string, log *slog.Logger, stage Stage[In, Out]) Stage[In, Out] {
	return func(ctx context.Context, in In) Result[Out] {
		start := time.Now()
		r := stage(ctx, in)
		if _, err := r.Unwrap(); r.IsErr() {
			log.Info("stage.exit", "stage", name, "duration", time.Since(start), "error", err)
		} else {
			log.Info("stage.exit", "stage", name, "duration", time.Since(start))
		}
		return r
	}
}
