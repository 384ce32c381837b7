package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"

	"title_ingester/internal/domain"
)

// IngestRequest asks for one title to be fetched and ingested.
type IngestRequest struct {
	IMDBID string `json:"imdb_id"`
}

type Ingester interface {
	IngestByID(ctx context.Context, imdbID string) (int64, error)
}

var errDeliveriesClosed = errors.New("delivery channel closed")

// Consumer reads ingestion requests from a durable queue.
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	workers int
	logger  *slog.Logger
}

type ConsumerConfig struct {
	URL       string
	QueueName string
	Prefetch  int
	Workers   int
}

func NewConsumer(cfg ConsumerConfig, logger *slog.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(cfg.QueueName, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.Qos(cfg.Prefetch, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	logger.Info("consuming ingestion requests",
		"queue", cfg.QueueName,
		"prefetch", cfg.Prefetch,
		"workers", workers,
	)

	return &Consumer{
		conn:    conn,
		channel: ch,
		queue:   cfg.QueueName,
		workers: workers,
		logger:  logger,
	}, nil
}

// Run hands deliveries to ingester until ctx is cancelled or the broker
// closes the channel.
func (c *Consumer) Run(ctx context.Context, ingester Ingester) error {
	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < c.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case d, ok := <-deliveries:
					if !ok {
						return errDeliveriesClosed
					}
					c.handle(gctx, ingester, d)
				}
			}
		})
	}
	return g.Wait()
}

func (c *Consumer) handle(ctx context.Context, ingester Ingester, d amqp.Delivery) {
	var req IngestRequest
	if err := json.Unmarshal(d.Body, &req); err != nil || strings.TrimSpace(req.IMDBID) == "" {
		c.logger.Warn("rejecting malformed request", "body", string(d.Body), "error", err)
		_ = d.Reject(false)
		return
	}

	logger := c.logger.With("imdb_id", req.IMDBID, "redelivered", d.Redelivered)

	titleID, err := ingester.IngestByID(ctx, req.IMDBID)
	switch {
	case err == nil:
		logger.Debug("request completed", "title_id", titleID)
		_ = d.Ack(false)
	case domain.IsRetryable(err) && !d.Redelivered:
		logger.Warn("requeueing request", "error", err)
		_ = d.Nack(false, true)
	case domain.IsRetryable(err):
		logger.Error("dropping request after retry", "error", err)
		_ = d.Nack(false, false)
	default:
		logger.Info("request not ingested", "error", err)
		_ = d.Ack(false)
	}
}

func (c *Consumer) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
