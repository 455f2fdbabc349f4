package publishers

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type snsClient interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type awsSNSSender struct {
	topicARN string
	subject  string
	client   snsClient
}

func newAWSSNSSender(ctx context.Context, cfg *AWSSNSPublisherConfig) (queueSender, error) {
	if cfg == nil {
		return nil, errors.New("aws sns configuration is missing")
	}
	awsCfg, err := loadAWSConfig(ctx, cfg.AWSCredentials)
	if err != nil {
		return nil, err
	}
	return &awsSNSSender{
		topicARN: cfg.TopicARN,
		subject:  cfg.Subject,
		client:   sns.NewFromConfig(awsCfg),
	}, nil
}

func (s *awsSNSSender) Send(ctx context.Context, msg queueMessage) (string, error) {
	attrs := make(map[string]types.MessageAttributeValue, len(msg.Attributes))
	for k, v := range msg.Attributes {
		attrs[k] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
	}

	input := &sns.PublishInput{
		TopicArn:          aws.String(s.topicARN),
		Message:           aws.String(string(msg.Body)),
		MessageAttributes: attrs,
	}
	if s.subject != "" {
		input.Subject = aws.String(s.subject)
	}

	resp, err := s.client.Publish(ctx, input)
	if err != nil {
		return "", err
	}
	return aws.ToString(resp.MessageId), nil
}

func (s *awsSNSSender) Close() error { return nil }
