package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"flowbuilder/pkg/observability"
)

type countQuery struct {
	Limit int
}

func (q countQuery) Validate() error {
	if q.Limit < 0 {
		return errors.New("limit must not be negative")
	}
	return nil
}

type unknownQuery struct{}

func (unknownQuery) Validate() error { return nil }

func TestQueryBus_Ask(t *testing.T) {
	b := NewQueryBus(MetricsMiddleware(observability.NewMetrics("test", nil, nil)))
	handler := QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) {
		return q.(countQuery).Limit * 2, nil
	})

	require.NoError(t, b.Register(countQuery{}, handler))
	assert.Error(t, b.Register(countQuery{}, handler))

	result, err := b.Ask(context.Background(), countQuery{Limit: 4})
	require.NoError(t, err)
	assert.Equal(t, 8, result)

	_, err = b.Ask(context.Background(), countQuery{Limit: -1})
	assert.EqualError(t, err, "limit must not be negative")

	_, err = b.Ask(context.Background(), unknownQuery{})
	assert.ErrorIs(t, err, ErrHandlerNotFound)
}

func TestQueryBus_LoggingMiddlewareWarnsOnFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	b := NewQueryBus(LoggingMiddleware(zap.New(core)))
	require.NoError(t, b.Register(countQuery{}, QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) {
		if q.(countQuery).Limit == 0 {
			return nil, errors.New("empty")
		}
		return "ok", nil
	})))

	_, err := b.Ask(context.Background(), countQuery{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, logs.Len())

	_, err = b.Ask(context.Background(), countQuery{})
	require.Error(t, err)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Query failed", entry.Message)
	assert.Equal(t, "countQuery", entry.ContextMap()["type"])
}
