package mq

import (
	"context"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"service-scheduler/internal/config"
	"service-scheduler/internal/repository"
)

const relayBatchSize = 100

// OutboxPublisher drains unpublished rows from the outbox table and publishes
// them to a RabbitMQ queue. Publishing and marking run inside one transaction
// per batch, so delivery is at-least-once: a crash between publish and commit
// re-publishes the batch on the next tick.
type OutboxPublisher struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	txManager repository.TxManager
	cfg       *config.Config
	logger    *log.Logger
}

// NewOutboxPublisher returns (nil, nil) when RabbitMQ is disabled; outbox
// rows then stay queued in the table.
func NewOutboxPublisher(txManager repository.TxManager, cfg *config.Config, logger *log.Logger) (*OutboxPublisher, error) {
	if !cfg.RabbitMQ.Enabled {
		logger.Printf("rabbitmq disabled, outbox events will stay queued")
		return nil, nil
	}

	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if _, err := channel.QueueDeclare(cfg.RabbitMQ.Queue, true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	return &OutboxPublisher{
		conn:      conn,
		channel:   channel,
		txManager: txManager,
		cfg:       cfg,
		logger:    logger,
	}, nil
}

func (p *OutboxPublisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.RabbitMQ.RelayInterval)
	defer ticker.Stop()

	for {
		if err := p.publishPending(ctx); err != nil {
			p.logger.Printf("outbox relay error: %v", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *OutboxPublisher) publishPending(ctx context.Context) error {
	return p.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		events, err := repos.Outbox.ListUnpublished(ctx, relayBatchSize)
		if err != nil {
			return err
		}

		for _, event := range events {
			err := p.channel.PublishWithContext(ctx, "", p.cfg.RabbitMQ.Queue, false, false, amqp.Publishing{
				ContentType: "application/json",
				Type:        event.EventType,
				MessageId:   event.ID.String(),
				Body:        event.Payload,
			})
			if err != nil {
				return err
			}

			if err := repos.Outbox.MarkPublished(ctx, event.ID); err != nil {
				return err
			}
		}

		return nil
	})
}

func (p *OutboxPublisher) Close() {
	if err := p.channel.Close(); err != nil {
		p.logger.Printf("amqp channel close error: %v", err)
	}
	if err := p.conn.Close(); err != nil {
		p.logger.Printf("amqp connection close error: %v", err)
	}
}
