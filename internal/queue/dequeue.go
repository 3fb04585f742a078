package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	api_types "modelfolio/api-types"
	folio_errors "modelfolio/internal"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/rs/zerolog"
)

const (
	maxMessages     = 10
	waitTimeSeconds = 20
)

// Receiver is the slice of the SQS client the consumer needs. *sqs.SQS
// satisfies it.
type Receiver interface {
	ReceiveMessageWithContext(ctx aws.Context, in *sqs.ReceiveMessageInput, opts ...request.Option) (*sqs.ReceiveMessageOutput, error)
	DeleteMessageWithContext(ctx aws.Context, in *sqs.DeleteMessageInput, opts ...request.Option) (*sqs.DeleteMessageOutput, error)
}

type Updater interface {
	UpdatePortfolio(ctx context.Context, portfolioID string, req api_types.UpdatePortfolioRequest) (*api_types.PortfolioResponse, error)
}

// commandMessage is the queue body: one portfolio command, in the same
// shape the http api takes.
type commandMessage struct {
	PortfolioID string                           `json:"portfolioId"`
	Request     api_types.UpdatePortfolioRequest `json:"request"`
}

type Consumer struct {
	receiver Receiver
	queueURL string
	updater  Updater
	log      zerolog.Logger
}

func NewConsumer(receiver Receiver, queueURL string, updater Updater, log zerolog.Logger) *Consumer {
	return &Consumer{
		receiver: receiver,
		queueURL: queueURL,
		updater:  updater,
		log:      log.With().Str("queue", queueURL).Logger(),
	}
}

// Run polls until ctx is cancelled. Receive errors back off for a few
// seconds instead of ending the loop.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		if _, err := c.GetAndProcess(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Error().Err(err).Msg("failed to poll queue")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(5 * time.Second):
			}
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// GetAndProcess receives one batch and applies each command. A message is
// deleted once handled or when it can never succeed. Anything retryable
// stays on the queue for redelivery. Returns how many were deleted.
func (c *Consumer) GetAndProcess(ctx context.Context) (int, error) {
	out, err := c.receiver.ReceiveMessageWithContext(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: aws.Int64(maxMessages),
		WaitTimeSeconds:     aws.Int64(waitTimeSeconds),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to receive messages: %w", err)
	}
	if out == nil {
		return 0, nil
	}

	deleted := 0
	for _, m := range out.Messages {
		log := c.log.With().Str("messageId", aws.StringValue(m.MessageId)).Logger()
		if err := c.process(ctx, aws.StringValue(m.Body)); err != nil {
			if retryable(err) {
				log.Warn().Err(err).Msg("command failed, leaving message for redelivery")
				continue
			}
			log.Error().Err(err).Msg("dropping command that cannot succeed")
		}

		_, err := c.receiver.DeleteMessageWithContext(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      aws.String(c.queueURL),
			ReceiptHandle: m.ReceiptHandle,
		})
		if err != nil {
			return deleted, fmt.Errorf("failed to delete message %s: %w", aws.StringValue(m.MessageId), err)
		}
		deleted++
	}

	return deleted, nil
}

type decodeError struct {
	err error
}

func (e decodeError) Error() string { return "malformed message: " + e.err.Error() }

func (c *Consumer) process(ctx context.Context, body string) error {
	var msg commandMessage
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return decodeError{err: err}
	}
	resp, err := c.updater.UpdatePortfolio(ctx, msg.PortfolioID, msg.Request)
	if err != nil {
		return err
	}
	c.log.Info().
		Str("portfolioId", msg.PortfolioID).
		Str("action", resp.Action).
		Int64("version", resp.Portfolio.Version).
		Msg("applied queued command")
	return nil
}

func retryable(err error) bool {
	var (
		decErr   decodeError
		verr     folio_errors.ValidationError
		fundsErr folio_errors.InsufficientFundsError
		overErr  folio_errors.OverAllocationError
	)
	switch {
	case errors.As(err, &decErr),
		errors.As(err, &verr),
		errors.As(err, &fundsErr),
		errors.As(err, &overErr),
		folio_errors.IsNotFound(err):
		return false
	}
	return true
}
