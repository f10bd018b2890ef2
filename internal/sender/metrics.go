package sender

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"recruitmail/internal/types"
)

// Metrics receives delivery outcomes. Implementations must not block the
// pass for long and must swallow their own errors.
type Metrics interface {
	RecordDelivery(ctx context.Context, backend types.Backend, success bool, latency time.Duration)
	RecordPass(ctx context.Context, summary types.SendSummary)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) RecordDelivery(context.Context, types.Backend, bool, time.Duration) {}
func (NoopMetrics) RecordPass(context.Context, types.SendSummary)                     {}

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchMetrics publishes delivery metrics to AWS CloudWatch.
//
// Metrics emitted:
//   - DeliveryAttempt: Dims {Backend, Result} -- on every delivery outcome
//   - DeliveryLatency: Dims {Backend} -- time taken by the provider call
//   - SendPass: Dims {Backend, Result} -- sent and failed counts of a finished pass
type CloudWatchMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
}

var _ Metrics = (*CloudWatchMetrics)(nil)

// NewCloudWatchMetrics creates a CloudWatchMetrics publishing to namespace,
// or types.MetricNamespace when namespace is empty.
func NewCloudWatchMetrics(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchMetrics {
	if namespace == "" {
		namespace = types.MetricNamespace
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchMetrics{client: client, namespace: namespace, logger: logger}
}

func resultDim(success bool) string {
	if success {
		return types.MetricResultSuccess
	}
	return types.MetricResultFailure
}

func dim(name, value string) cwtypes.Dimension {
	return cwtypes.Dimension{Name: aws.String(name), Value: aws.String(value)}
}

// RecordDelivery emits DeliveryAttempt and DeliveryLatency in one call.
func (m *CloudWatchMetrics) RecordDelivery(ctx context.Context, backend types.Backend, success bool, latency time.Duration) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(types.MetricDeliveryAttempt),
				Value:      aws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{
					dim(types.DimBackend, string(backend)),
					dim(types.DimResult, resultDim(success)),
				},
			},
			{
				MetricName: aws.String(types.MetricDeliveryLatency),
				Value:      aws.Float64(float64(latency.Milliseconds())),
				Unit:       cwtypes.StandardUnitMilliseconds,
				Dimensions: []cwtypes.Dimension{
					dim(types.DimBackend, string(backend)),
				},
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record delivery metric",
			"error", err.Error(),
			"backend", string(backend),
			"success", success,
		)
	}
}

// RecordPass emits the sent and failed counts of a finished pass.
func (m *CloudWatchMetrics) RecordPass(ctx context.Context, s types.SendSummary) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(types.MetricSendPass),
				Value:      aws.Float64(float64(s.Sent)),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{
					dim(types.DimBackend, string(s.Backend)),
					dim(types.DimResult, types.MetricResultSuccess),
				},
			},
			{
				MetricName: aws.String(types.MetricSendPass),
				Value:      aws.Float64(float64(s.Failed)),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{
					dim(types.DimBackend, string(s.Backend)),
					dim(types.DimResult, types.MetricResultFailure),
				},
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record send pass metric",
			"error", err.Error(),
			"backend", string(s.Backend),
		)
	}
}
