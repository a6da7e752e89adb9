package email

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESAPI is the subset of the sesv2 client used here.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESClient delivers messages through Amazon SES.
type SESClient struct {
	api SESAPI
}

// SESConfig holds the AWS settings for SESClient. Empty keys fall back to
// the default credential chain (env, shared config, instance role).
type SESConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// NewSESClient loads AWS configuration and builds an SES-backed client.
func NewSESClient(ctx context.Context, cfg SESConfig) (*SESClient, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SESClient{api: sesv2.NewFromConfig(awsCfg)}, nil
}

// NewSESClientWithAPI wraps an existing sesv2 API implementation.
func NewSESClientWithAPI(api SESAPI) *SESClient {
	return &SESClient{api: api}
}

func (c *SESClient) Send(ctx context.Context, msg Message) (*Result, error) {
	if msg.To == "" {
		return nil, fmt.Errorf("ses: empty recipient")
	}

	from := (&mail.Address{Name: msg.FromName, Address: msg.From}).String()
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.HTMLBody), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	out, err := c.api.SendEmail(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("ses send: %w", err)
	}

	return &Result{
		DeliveryStatus: "sent",
		Sent:           true,
		MessageID:      aws.ToString(out.MessageId),
	}, nil
}
