package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"tradepost/infra/rabbitmq"
	"tradepost/internal/consumers"
	"tradepost/pkg/aws"
	"tradepost/pkg/config"
	"tradepost/pkg/events"
	"tradepost/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	appConfig := config.Read()
	flush := logger.Install(appConfig)
	defer flush()

	zap.L().Info("Tradepost Worker Service starting...")

	if appConfig.RabbitMQURL == "" {
		zap.L().Fatal("RABBITMQ_URL is required for worker service")
	}
	if appConfig.AWSBucket == "" {
		zap.L().Fatal("AWS_BUCKET is required for receipt archiving")
	}

	receiptHandler := consumers.NewReceiptEventHandler(aws.NewS3Bucket(*appConfig))

	// Queue name: {consumer}.{domain}.{event}.{version}
	receiptConsumerConfig := rabbitmq.ConsumerConfig{
		Exchange:       events.LedgerExchange,
		QueueName:      "receipts.ledger.transaction.committed.v1",
		RoutingKeys:    []string{events.TransactionCommittedEvent + "." + events.EventVersionV1},
		ServiceName:    appConfig.ServiceName + "-receipts",
		PrefetchCount:  10,
		WorkerPoolSize: 4,
	}

	receiptConsumer, err := rabbitmq.NewConsumer(appConfig.RabbitMQURL, receiptConsumerConfig)
	if err != nil {
		zap.L().Fatal("Failed to create receipt consumer", zap.Error(err))
	}
	defer receiptConsumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		zap.L().Info("Starting receipt consumer...")
		if err := receiptConsumer.Consume(ctx, receiptHandler.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
			zap.L().Error("Receipt consumer error", zap.Error(err))
			select {
			case sigChan <- syscall.SIGTERM:
			default:
			}
		}
	}()

	zap.L().Info("Worker service started successfully. Waiting for events...",
		zap.String("exchange", receiptConsumerConfig.Exchange),
		zap.String("queue", receiptConsumerConfig.QueueName),
	)

	<-sigChan
	zap.L().Info("Shutdown signal received, stopping worker service...")
	cancel()
	<-done

	zap.L().Info("Worker service stopped gracefully")
}
