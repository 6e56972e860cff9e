package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracer_DisabledRunsFunction(t *testing.T) {
	tracer := NewTracer("flowbuilder", false)
	called := false

	err := tracer.TraceFunction(context.Background(), "save", func(context.Context) error {
		called = true
		return errors.New("store down")
	})

	assert.True(t, called)
	assert.EqualError(t, err, "store down")

	ctx, seg := tracer.StartSegment(context.Background(), "request")
	assert.Nil(t, seg)
	assert.NotNil(t, ctx)
}

func TestTracer_EnabledWithoutParentSegment(t *testing.T) {
	tracer := NewTracer("flowbuilder", true)
	called := false

	err := tracer.TraceFunction(context.Background(), "save", func(context.Context) error {
		called = true
		return nil
	})

	assert.True(t, called)
	assert.NoError(t, err)
	tracer.AddAnnotation(context.Background(), "key", "value")
}
