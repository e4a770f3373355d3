package messaging

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SQSDispatcher hands message envelopes to an SQS delivery queue consumed by
// the notification sender.
type SQSDispatcher struct {
	client   *sqs.Client
	queueURL string
}

// NewSQSDispatcher constructs an SQS-backed dispatcher.
func NewSQSDispatcher(ctx context.Context, region, queueURL string) (*SQSDispatcher, error) {
	if strings.TrimSpace(queueURL) == "" {
		return nil, fmt.Errorf("delivery queue url is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &SQSDispatcher{
		client:   sqs.NewFromConfig(cfg),
		queueURL: queueURL,
	}, nil
}

// Dispatch delivers an envelope to the configured SQS queue.
func (d *SQSDispatcher) Dispatch(ctx context.Context, env Envelope) error {
	payload, err := EncodeEnvelope(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	_, err = d.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(d.queueURL),
		MessageBody: aws.String(string(payload)),
	})
	if err != nil {
		return fmt.Errorf("sqs send message: %w", err)
	}
	return nil
}

var _ Dispatcher = (*SQSDispatcher)(nil)
