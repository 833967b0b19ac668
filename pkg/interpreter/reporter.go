package interpreter

import (
	"go.uber.org/zap"

	"mirvm/interpreter-go/pkg/mir"
)

// Reporter receives non-fatal diagnostics from the machine. Warn fires at
// most once per evaluation (the loop detector's first activation); Debug
// carries the per-instruction destination dump and has no semantic effect.
type Reporter interface {
	Warn(span mir.Span, message string)
	Debug(span mir.Span, message string)
}

type zapReporter struct {
	log *zap.Logger
}

// NewZapReporter adapts a zap logger into a Reporter.
func NewZapReporter(log *zap.Logger) Reporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &zapReporter{log: log}
}

func (r *zapReporter) Warn(span mir.Span, message string) {
	r.log.Warn(message, zap.String("span", span.String()))
}

func (r *zapReporter) Debug(span mir.Span, message string) {
	r.log.Debug(message, zap.String("span", span.String()))
}
