package futurecash

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/segmentio/kafka-go"
)

const (
	CallbacksTopic = "offer_callbacks"
	EventsTopic    = "points_events"
	groupID        = "futurecash"
)

func brokers() ([]string, error) {
	kafkaurl := os.Getenv("KAFKA_URL")
	if kafkaurl == "" {
		return nil, fmt.Errorf("env KAFKA_URL is not set")
	}
	kafkaport := os.Getenv("KAFKA_PORT")
	if kafkaport == "" {
		return nil, fmt.Errorf("env KAFKA_PORT is not set")
	}
	return []string{kafkaurl + ":" + kafkaport}, nil
}

// Колбэки провайдеров из очереди
type CallbackReader struct {
	reader *kafka.Reader
}

func NewCallbackReader() (*CallbackReader, error) {
	addrs, err := brokers()
	if err != nil {
		return nil, err
	}
	kafkaconfig := kafka.ReaderConfig{
		Brokers: addrs,
		Topic:   CallbacksTopic,
		GroupID: groupID,
	}
	return &CallbackReader{kafka.NewReader(kafkaconfig)}, nil
}

// Чтение без фиксации offset. Ошибка разбора - ErrBadRequest, сообщение возвращается для фиксации.
func (k *CallbackReader) FetchCallback(ctx context.Context) (model.Callback, kafka.Message, error) {
	msg, err := k.reader.FetchMessage(ctx)
	if err != nil {
		return model.Callback{}, msg, err
	}
	callback, err := DecodeCallback(msg.Value)
	return callback, msg, err
}

func (k *CallbackReader) Commit(ctx context.Context, msg kafka.Message) error {
	return k.reader.CommitMessages(ctx, msg)
}

func (k *CallbackReader) Close() error {
	return k.reader.Close()
}

func DecodeCallback(data []byte) (model.Callback, error) {
	callback := model.Callback{}
	err := json.Unmarshal(data, &callback)
	if err != nil {
		return model.Callback{}, fmt.Errorf("callback message: %s: %w", err.Error(), model.ErrBadRequest)
	}
	return callback, nil
}

// События изменения баланса
type EventWriter struct {
	writer *kafka.Writer
}

func NewEventWriter() (*EventWriter, error) {
	addrs, err := brokers()
	if err != nil {
		return nil, err
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(addrs...),
		Topic:                  EventsTopic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &EventWriter{writer}, nil
}

// ключ - пользователь, порядок событий по пользователю сохраняется
func EncodeEvent(event model.PointsEvent) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{Key: []byte(event.UserID.String()), Value: value}, nil
}

func (k *EventWriter) PublishPoints(ctx context.Context, event model.PointsEvent) error {
	msg, err := EncodeEvent(event)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, msg)
}

func (k *EventWriter) Close() error {
	return k.writer.Close()
}
