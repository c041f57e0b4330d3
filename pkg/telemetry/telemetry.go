// Package telemetry turns the steps of a machine into OpenTelemetry spans.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stateforward/go-asm"
	"github.com/stateforward/go-asm/kinds"
)

const Name = "github.com/stateforward/go-asm"

var (
	MachineKey = attribute.Key("asm.machine")
	ElementKey = attribute.Key("asm.element")
	KindKey    = attribute.Key("asm.kind")
	ResultKey  = attribute.Key("asm.result")
)

// New returns a trace that opens an "asm.<step>" span for every step. A nil tracer uses the
// global tracer provider.
func New(tracer trace.Tracer) asm.Trace {
	if tracer == nil {
		tracer = otel.Tracer(Name)
	}
	return func(ctx context.Context, step string, elements ...asm.Element) func(...any) {
		_, span := tracer.Start(ctx, "asm."+step, trace.WithAttributes(Attributes(elements...)...))
		return func(outcome ...any) {
			for _, value := range outcome {
				switch value := value.(type) {
				case bool:
					span.SetAttributes(ResultKey.Bool(value))
				case error:
					span.RecordError(value)
					span.SetStatus(codes.Error, value.Error())
				}
			}
			span.End()
		}
	}
}

// Attributes describes elements. The machine becomes asm.machine; the last other element
// becomes asm.element and asm.kind.
func Attributes(elements ...asm.Element) []attribute.KeyValue {
	attributes := make([]attribute.KeyValue, 0, 3)
	for _, element := range elements {
		if kinds.IsKind(element.Kind(), kinds.Machine) {
			attributes = append(attributes, MachineKey.String(element.Name()))
			continue
		}
		attributes = append(attributes,
			ElementKey.String(element.Name()),
			KindKey.String(kinds.Name(element.Kind())),
		)
	}
	return attributes
}
