package metrics

import (
	"context"
	"log"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/ahadu-market/ordersync/internal/aws"
)

const namespace = "OrderSync"

// CloudWatchRecorder pushes engine counters to CloudWatch. Each call is a
// single PutMetricData; failures are logged and dropped.
type CloudWatchRecorder struct {
	client  aws.CloudWatchAPI
	nowFunc func() time.Time
}

// NewCloudWatchRecorder returns a recorder using the given client.
func NewCloudWatchRecorder(client aws.CloudWatchAPI) *CloudWatchRecorder {
	return &CloudWatchRecorder{client: client, nowFunc: time.Now}
}

func (r *CloudWatchRecorder) ReconcileServed(ctx context.Context, source string, degraded bool) {
	degradedVal := "false"
	if degraded {
		degradedVal = "true"
	}
	r.put(ctx, "ReconcileServed", []cwtypes.Dimension{
		{Name: sdkaws.String("Source"), Value: sdkaws.String(source)},
		{Name: sdkaws.String("Degraded"), Value: sdkaws.String(degradedVal)},
	})
}

func (r *CloudWatchRecorder) ReconcileFailed(ctx context.Context) {
	r.put(ctx, "ReconcileFailed", nil)
}

func (r *CloudWatchRecorder) StatusUpdateFailed(ctx context.Context) {
	r.put(ctx, "StatusUpdateFailed", nil)
}

func (r *CloudWatchRecorder) put(ctx context.Context, name string, dims []cwtypes.Dimension) {
	_, err := r.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: sdkaws.String(namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: sdkaws.String(name),
				Dimensions: dims,
				Timestamp:  sdkaws.Time(r.nowFunc()),
				Unit:       cwtypes.StandardUnitCount,
				Value:      sdkaws.Float64(1),
			},
		},
	})
	if err != nil {
		log.Printf("metrics: put %s: %v", name, err)
	}
}
