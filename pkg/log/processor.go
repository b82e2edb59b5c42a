package log

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/mwantia/fabric/pkg/container"
)

// LoggerTagProcessor injects loggers into fields tagged fabric:"logger" or
// fabric:"logger:<name>". A name resolves the registered LoggerService and
// returns its Named(name) child.
//
// Fabric only builds tagged structs that carry at least one fabric:"inject"
// field, and the processor has to be added before such a struct is registered.
type LoggerTagProcessor struct{}

func NewLoggerTagProcessor() *LoggerTagProcessor {
	return &LoggerTagProcessor{}
}

// GetPriority runs the processor ahead of the default inject processor.
func (ltp *LoggerTagProcessor) GetPriority() int {
	return 50
}

func (ltp *LoggerTagProcessor) CanProcess(value string) bool {
	_, ok := loggerName(value)
	return ok
}

func (ltp *LoggerTagProcessor) Process(ctx context.Context, sc *container.ServiceContainer, field reflect.StructField, value string) (any, error) {
	name, ok := loggerName(value)
	if !ok {
		return nil, fmt.Errorf("field '%s': unsupported logger tag '%s'", field.Name, value)
	}

	ok, resolved := sc.ResolveByType(ctx, reflect.TypeOf((*LoggerService)(nil)).Elem())
	if !ok {
		return nil, fmt.Errorf("field '%s': no LoggerService registered", field.Name)
	}
	base, ok := resolved.(LoggerService)
	if !ok {
		return nil, fmt.Errorf("field '%s': resolved %T is not a LoggerService", field.Name, resolved)
	}

	if name == "" {
		return base, nil
	}
	return base.Named(name), nil
}

// loggerName splits "logger" or "logger:<name>", ignoring case of the prefix.
func loggerName(value string) (string, bool) {
	kind, name, _ := strings.Cut(value, ":")
	if !strings.EqualFold(strings.TrimSpace(kind), "logger") {
		return "", false
	}
	return strings.TrimSpace(name), true
}
