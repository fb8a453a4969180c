package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jimlawless/whereami"
	"github.com/segmentio/kafka-go"
	"github.com/vektalab/embedviz/internal/cfg"
	"github.com/vektalab/embedviz/internal/usecase"
	"github.com/vektalab/embedviz/pkg/e"
	"github.com/vektalab/embedviz/pkg/logger"
)

// EpochEvent — событие завершения эпохи обучения.
type EpochEvent struct {
	EventID        string  `json:"event_id"`
	EventTimestamp int64   `json:"event_timestamp"`
	EventType      string  `json:"event_type"`
	RunID          int64   `json:"run_id"`
	Epoch          int     `json:"epoch"`
	AvgLoss        float64 `json:"avg_loss"`
	Collected      int     `json:"collected"`
}

// RunEvent — событие смены статуса запуска.
type RunEvent struct {
	EventID        string `json:"event_id"`
	EventTimestamp int64  `json:"event_timestamp"`
	EventType      string `json:"event_type"`
	RunID          int64  `json:"run_id"`
	Status         string `json:"status"`
	Collection     string `json:"collection"`
	Records        int    `json:"records"`
}

type Producer struct {
	writer *kafka.Writer
	logger logger.Logger
	cfg    *cfg.KafkaCfg
}

func NewProducer(logger logger.Logger, cfg *cfg.KafkaCfg) (*Producer, error) {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    10,
		BatchTimeout: 500 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warnf("Kafka producer error: %s", err.Error())
			}
		},
	}

	return &Producer{
		writer: writer,
		logger: logger,
		cfg:    cfg,
	}, nil
}

// WriteEpochEvent публикует событие завершения эпохи.
// Ключ сообщения — run ID, так все события запуска попадают в одну партицию.
func (p *Producer) WriteEpochEvent(ctx context.Context, req *usecase.EpochEventReq) error {
	event := EpochEvent{
		EventID:        uuid.NewString(),
		EventTimestamp: time.Now().UnixNano(),
		EventType:      "epoch_completed",
		RunID:          req.RunID,
		Epoch:          req.Epoch,
		AvgLoss:        req.AvgLoss,
		Collected:      req.Collected,
	}

	value, err := json.Marshal(event)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(req.RunID, 10)),
		Value: value,
	})
}

// WriteRunEvent публикует событие смены статуса запуска.
func (p *Producer) WriteRunEvent(ctx context.Context, req *usecase.RunEventReq) error {
	event := RunEvent{
		EventID:        uuid.NewString(),
		EventTimestamp: time.Now().UnixNano(),
		EventType:      "run_status_changed",
		RunID:          req.RunID,
		Status:         req.Status,
		Collection:     req.Collection,
		Records:        req.Records,
	}

	value, err := json.Marshal(event)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(req.RunID, 10)),
		Value: value,
	})
}

func (p *Producer) EnsureTopic(timeout time.Duration) error {
	conn, err := kafka.Dial(p.cfg.NetworkMode, p.cfg.Brokers[0])
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions(p.cfg.Topic)
	if err == nil && len(partitions) > 0 {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		err := conn.CreateTopics(kafka.TopicConfig{
			Topic:             p.cfg.Topic,
			NumPartitions:     p.cfg.Partitions,
			ReplicationFactor: p.cfg.ReplicationFactor,
		})
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), fmt.Errorf("failed to create topic %s: %w", p.cfg.Topic, err))
		}
		return nil
	case <-time.After(timeout):
		_ = conn.Close()
		return e.Wrap(whereami.WhereAmI(), fmt.Errorf("timeout: %v, topic: %s", timeout, p.cfg.Topic))
	}
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
