package messaging

import (
	"context"
	"io"
	"log/slog"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"

	"title_ingester/internal/domain"
)

type recordedAck struct {
	acked    bool
	nacked   bool
	rejected bool
	requeue  bool
}

func (r *recordedAck) Ack(tag uint64, multiple bool) error {
	r.acked = true
	return nil
}

func (r *recordedAck) Nack(tag uint64, multiple, requeue bool) error {
	r.nacked = true
	r.requeue = requeue
	return nil
}

func (r *recordedAck) Reject(tag uint64, requeue bool) error {
	r.rejected = true
	r.requeue = requeue
	return nil
}

type ingesterFunc func(ctx context.Context, imdbID string) (int64, error)

func (f ingesterFunc) IngestByID(ctx context.Context, imdbID string) (int64, error) {
	return f(ctx, imdbID)
}

func newTestConsumer() *Consumer {
	return &Consumer{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestConsumer_Handle(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		redelivered bool
		result      error
		want        recordedAck
	}{
		{
			name:   "success acks",
			body:   `{"imdb_id":"tt1375666"}`,
			result: nil,
			want:   recordedAck{acked: true},
		},
		{
			name: "malformed body is rejected",
			body: `not json`,
			want: recordedAck{rejected: true},
		},
		{
			name: "missing id is rejected",
			body: `{"imdb_id":"  "}`,
			want: recordedAck{rejected: true},
		},
		{
			name:   "validation error acks",
			body:   `{"imdb_id":"tt0000000"}`,
			result: &domain.ValidationError{Reason: "title not found: Incorrect IMDb ID."},
			want:   recordedAck{acked: true},
		},
		{
			name:   "duplicate acks",
			body:   `{"imdb_id":"tt1375666"}`,
			result: &domain.ConflictError{IMDBID: "tt1375666"},
			want:   recordedAck{acked: true},
		},
		{
			name:   "retryable conflict requeues once",
			body:   `{"imdb_id":"tt1375666"}`,
			result: &domain.ConflictError{IMDBID: "tt1375666", Retryable: true},
			want:   recordedAck{nacked: true, requeue: true},
		},
		{
			name:        "retryable conflict dropped after redelivery",
			body:        `{"imdb_id":"tt1375666"}`,
			redelivered: true,
			result:      &domain.ConflictError{IMDBID: "tt1375666", Retryable: true},
			want:        recordedAck{nacked: true},
		},
		{
			name:   "internal error requeues",
			body:   `{"imdb_id":"tt1375666"}`,
			result: &domain.InternalError{Message: "failed to ingest title"},
			want:   recordedAck{nacked: true, requeue: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &recordedAck{}
			called := false
			ingester := ingesterFunc(func(ctx context.Context, imdbID string) (int64, error) {
				called = true
				if tt.result != nil {
					return 0, tt.result
				}
				return 42, nil
			})

			newTestConsumer().handle(context.Background(), ingester, amqp.Delivery{
				Acknowledger: ack,
				DeliveryTag:  1,
				Redelivered:  tt.redelivered,
				Body:         []byte(tt.body),
			})

			assert.Equal(t, tt.want, *ack)
			assert.Equal(t, !tt.want.rejected, called)
		})
	}
}
