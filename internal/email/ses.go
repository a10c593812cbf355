package email

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
)

const charset = "UTF-8"

// SESSender delivers mail through AWS SES.
type SESSender struct {
	svc  *ses.SES
	from string
}

func NewSESSender(region, from string) (*SESSender, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	return &SESSender{svc: ses.New(sess), from: from}, nil
}

func (s *SESSender) Send(ctx context.Context, m Message) error {
	input := &ses.SendEmailInput{
		Source: aws.String(s.from),
		Destination: &ses.Destination{
			ToAddresses: []*string{aws.String(m.To)},
		},
		Message: &ses.Message{
			Subject: &ses.Content{Charset: aws.String(charset), Data: aws.String(m.Subject)},
			Body: &ses.Body{
				Text: &ses.Content{Charset: aws.String(charset), Data: aws.String(m.Text)},
				Html: &ses.Content{Charset: aws.String(charset), Data: aws.String(m.HTML)},
			},
		},
	}
	_, err := s.svc.SendEmailWithContext(ctx, input)
	if err != nil {
		return fmt.Errorf("ses send: %w", err)
	}
	return nil
}
