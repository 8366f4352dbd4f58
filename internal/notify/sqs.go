package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"

	"github.com/ahadu-market/ordersync/internal/aws"
)

// notification is the message shape delivered to the toast queue. The
// consumer on the storefront side renders it as-is.
type notification struct {
	ID        string    `json:"id"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// SQSNotifier publishes notifications to an SQS queue. Delivery is
// best-effort: send failures are logged, never surfaced.
type SQSNotifier struct {
	SQS      aws.SQSAPI
	QueueURL string
	nowFunc  func() time.Time
}

// NewSQSNotifier returns a notifier bound to a queue URL.
func NewSQSNotifier(sqsClient aws.SQSAPI, queueURL string) *SQSNotifier {
	return &SQSNotifier{
		SQS:      sqsClient,
		QueueURL: queueURL,
		nowFunc:  time.Now,
	}
}

func (n *SQSNotifier) Notify(ctx context.Context, severity, message string) {
	body, err := json.Marshal(notification{
		ID:        uuid.NewString(),
		Severity:  severity,
		Message:   message,
		CreatedAt: n.nowFunc().UTC(),
	})
	if err != nil {
		log.Printf("notify: marshal: %v", err)
		return
	}

	bodyStr := string(body)
	input := &sqs.SendMessageInput{
		QueueUrl:    &n.QueueURL,
		MessageBody: &bodyStr,
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"severity": {
				DataType:    awsString("String"),
				StringValue: &severity,
			},
		},
	}

	if _, err := n.SQS.SendMessage(ctx, input); err != nil {
		log.Printf("notify: send message: %v", err)
	}
}

// awsString helper
func awsString(s string) *string { return &s }
