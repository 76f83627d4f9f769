package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// MetricsAPI is the part of the CloudWatch client the recorder needs
type MetricsAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchRecorder pushes command metrics to CloudWatch. Used by the
// Lambda entrypoints, where nothing scrapes /metrics.
type CloudWatchRecorder struct {
	namespace string
	client    MetricsAPI
	timeout   time.Duration
	logger    *zap.Logger
}

func NewCloudWatchRecorder(namespace string, client MetricsAPI, logger *zap.Logger) *CloudWatchRecorder {
	return &CloudWatchRecorder{
		namespace: namespace,
		client:    client,
		timeout:   2 * time.Second,
		logger:    logger,
	}
}

// RecordCommand records metrics for command execution
func (m *CloudWatchRecorder) RecordCommand(name string, duration time.Duration, err error) {
	if m.client == nil {
		return
	}

	now := time.Now()
	dims := []types.Dimension{
		{Name: aws.String("CommandName"), Value: aws.String(name)},
		{Name: aws.String("Status"), Value: aws.String(outcome(err))},
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	_, putErr := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String("CommandExecution"),
				Dimensions: dims,
				Value:      aws.Float64(float64(duration.Milliseconds())),
				Unit:       types.StandardUnitMilliseconds,
				Timestamp:  aws.Time(now),
			},
			{
				MetricName: aws.String("CommandCount"),
				Dimensions: dims,
				Value:      aws.Float64(1),
				Unit:       types.StandardUnitCount,
				Timestamp:  aws.Time(now),
			},
		},
	})
	if putErr != nil {
		m.logger.Warn("Failed to send metrics", zap.String("command", name), zap.Error(putErr))
	}
}

// CommandRecorder matches the command bus metrics hook
type CommandRecorder interface {
	RecordCommand(name string, duration time.Duration, err error)
}

// Recorders fans a command outcome out to several sinks
type Recorders []CommandRecorder

func (rs Recorders) RecordCommand(name string, duration time.Duration, err error) {
	for _, r := range rs {
		r.RecordCommand(name, duration, err)
	}
}
