package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"studynotes/internal/model"
	"studynotes/internal/pkg/apperr"
	"studynotes/internal/platform/rabbitmq"
)

var errMalformedMessage = errors.New("malformed qa message")

type QuestionAppender interface {
	AppendQuestion(ctx context.Context, noteID string, pair model.QAPair) error
}

// QAPersistWorker drains the Q&A queue and appends each pair to its note.
type QAPersistWorker struct {
	conn      *amqp.Connection
	notes     QuestionAppender
	queueName string
	logger    *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewQAPersistWorker(conn *amqp.Connection, notes QuestionAppender, queueName string, logger *zap.Logger) *QAPersistWorker {
	return &QAPersistWorker{
		conn:      conn,
		notes:     notes,
		queueName: queueName,
		logger:    logger.With(zap.String("worker", "qa_persist"), zap.String("queue", queueName)),
	}
}

func (w *QAPersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.handle(workerCtx, d.Body); err != nil {
					requeue := !d.Redelivered && retryable(err)
					w.logger.Warn("qa message not persisted", zap.Bool("requeue", requeue), zap.Error(err))
					_ = d.Nack(false, requeue)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	w.logger.Info("worker started")
	return nil
}

func (w *QAPersistWorker) handle(ctx context.Context, body []byte) error {
	var msg model.QAMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: %w", errMalformedMessage, err)
	}
	if msg.NoteID == "" {
		return fmt.Errorf("%w: no note id", errMalformedMessage)
	}
	if err := w.notes.AppendQuestion(ctx, msg.NoteID, msg.Pair); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return fmt.Errorf("note %s no longer exists: %w", msg.NoteID, err)
		}
		return fmt.Errorf("persist qa message failed: %w", err)
	}
	return nil
}

// retryable reports whether a redelivery could succeed.
func retryable(err error) bool {
	return !errors.Is(err, errMalformedMessage) && !errors.Is(err, apperr.ErrNotFound)
}

func (w *QAPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
