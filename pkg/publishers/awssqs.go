package publishers

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type sqsClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type awsSQSSender struct {
	queueURL string
	groupID  string
	client   sqsClient
}

func newAWSSQSSender(ctx context.Context, cfg *AWSSQSPublisherConfig) (queueSender, error) {
	if cfg == nil {
		return nil, errors.New("aws sqs configuration is missing")
	}
	awsCfg, err := loadAWSConfig(ctx, cfg.AWSCredentials)
	if err != nil {
		return nil, err
	}
	return &awsSQSSender{
		queueURL: cfg.QueueURL,
		groupID:  cfg.MessageGroupID,
		client:   sqs.NewFromConfig(awsCfg),
	}, nil
}

func (s *awsSQSSender) Send(ctx context.Context, msg queueMessage) (string, error) {
	attrs := make(map[string]types.MessageAttributeValue, len(msg.Attributes))
	for k, v := range msg.Attributes {
		attrs[k] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
	}

	input := &sqs.SendMessageInput{
		QueueUrl:          aws.String(s.queueURL),
		MessageBody:       aws.String(string(msg.Body)),
		MessageAttributes: attrs,
	}
	if s.groupID != "" {
		input.MessageGroupId = aws.String(s.groupID)
		input.MessageDeduplicationId = aws.String(msg.ID)
	}

	resp, err := s.client.SendMessage(ctx, input)
	if err != nil {
		return "", err
	}
	return aws.ToString(resp.MessageId), nil
}

func (s *awsSQSSender) Close() error { return nil }
