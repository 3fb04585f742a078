package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"modelfolio/internal/app"
	"modelfolio/internal/queue"
	"modelfolio/internal/util"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	_ "github.com/lib/pq"
)

func main() {
	cfg, err := util.LoadConfig()
	if err != nil {
		bootLog := util.NewLogger(util.LogConfig{})
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := util.NewLogger(cfg.LogConfig())
	if cfg.QueueURL == "" {
		log.Fatal().Msg("QUEUE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := session.NewSessionWithOptions(session.Options{
		Config: aws.Config{
			Region:                        aws.String(cfg.AwsRegion),
			CredentialsChainVerboseErrors: aws.Bool(true),
		},
		Profile: cfg.AwsProfile,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create aws session")
	}
	if _, err := sess.Config.Credentials.Get(); err != nil {
		log.Fatal().Err(err).Msg("no aws credentials")
	}

	a, err := app.Build(ctx, cfg, log, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start")
	}
	defer a.Close()

	consumer := queue.NewConsumer(sqs.New(sess), cfg.QueueURL, a.Resolver, log)
	log.Info().Str("queue", cfg.QueueURL).Msg("consuming portfolio commands")
	if err := consumer.Run(ctx); err != nil {
		log.Error().Err(err).Msg("consumer stopped")
	}
}
