package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// CloudWatchAPI is the part of the CloudWatch client Metrics uses
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Metrics handles application metrics and monitoring.
// A Metrics without a client records nothing.
type Metrics struct {
	namespace string
	client    CloudWatchAPI
	logger    *zap.Logger
	now       func() time.Time
}

// NewMetrics creates a new metrics instance
func NewMetrics(namespace string, client CloudWatchAPI, logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Metrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
		now:       time.Now,
	}
}

// Enabled reports whether metrics are sent anywhere
func (m *Metrics) Enabled() bool {
	return m != nil && m.client != nil
}

// RecordCommandExecution records duration and outcome of a command
func (m *Metrics) RecordCommandExecution(ctx context.Context, commandName string, duration time.Duration, err error) {
	m.recordExecution(ctx, "Command", commandName, duration, err)
}

// RecordQueryExecution records duration and outcome of a query
func (m *Metrics) RecordQueryExecution(ctx context.Context, queryName string, duration time.Duration, err error) {
	m.recordExecution(ctx, "Query", queryName, duration, err)
}

// RecordSaveAttempt counts save attempts by outcome: saved, refused or failed
func (m *Metrics) RecordSaveAttempt(ctx context.Context, outcome string, offending int) {
	if !m.Enabled() {
		return
	}
	dims := []types.Dimension{{Name: aws.String("Outcome"), Value: aws.String(outcome)}}
	m.put(ctx, []types.MetricDatum{
		m.datum("SaveAttempts", dims, 1, types.StandardUnitCount),
		m.datum("OffendingNodes", dims, float64(offending), types.StandardUnitCount),
	})
}

// RecordError records error occurrences
func (m *Metrics) RecordError(ctx context.Context, errorType string, errorCode string) {
	if !m.Enabled() {
		return
	}
	m.put(ctx, []types.MetricDatum{
		m.datum("Errors", []types.Dimension{
			{Name: aws.String("ErrorType"), Value: aws.String(errorType)},
			{Name: aws.String("ErrorCode"), Value: aws.String(errorCode)},
		}, 1, types.StandardUnitCount),
	})
}

func (m *Metrics) recordExecution(ctx context.Context, kind, name string, duration time.Duration, err error) {
	if !m.Enabled() {
		return
	}

	status := "success"
	if err != nil {
		status = "failure"
	}
	dims := []types.Dimension{
		{Name: aws.String(kind + "Name"), Value: aws.String(name)},
		{Name: aws.String("Status"), Value: aws.String(status)},
	}

	m.put(ctx, []types.MetricDatum{
		m.datum(kind+"Execution", dims, float64(duration.Milliseconds()), types.StandardUnitMilliseconds),
		m.datum(kind+"Count", dims, 1, types.StandardUnitCount),
	})
}

func (m *Metrics) datum(name string, dims []types.Dimension, value float64, unit types.StandardUnit) types.MetricDatum {
	return types.MetricDatum{
		MetricName: aws.String(name),
		Dimensions: dims,
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(m.now()),
	}
}

// put never fails the caller
func (m *Metrics) put(ctx context.Context, data []types.MetricDatum) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Warn("Failed to send metrics",
			zap.String("namespace", m.namespace),
			zap.Error(err),
		)
	}
}
