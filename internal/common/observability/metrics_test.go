package observability

import (
	"context"
	"testing"
	"time"

	"loan-console/internal/common/logger"

	"github.com/stretchr/testify/assert"
)

func TestNew_WithoutJaeger(t *testing.T) {
	o := New("loan-console-test", "", logger.NewNoOpLogger())
	defer o.Shutdown()

	assert.NotNil(t, o.Tracer())
	o.RecordCall(context.Background(), "paymentlog", 15*time.Millisecond, "ok")

	_, span := o.Tracer().Start(context.Background(), "check")
	span.End()
}

func TestNilObservabilityIsSafe(t *testing.T) {
	var o *Observability
	assert.NotNil(t, o.Tracer())
	o.RecordCall(context.Background(), "x", time.Millisecond, "ok")
	o.Shutdown()
}
