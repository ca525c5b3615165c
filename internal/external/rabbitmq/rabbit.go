package futurecash

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const queueout = "redemptions"
const queue = "redemption_status"

func dial() (*amqp.Connection, error) {
	// config
	rabbiturl := os.Getenv("RABBIT_URL")
	if rabbiturl == "" {
		return nil, fmt.Errorf("env RABBIT_URL is not set")
	}
	rabbitport := os.Getenv("RABBIT_PORT")
	if rabbitport == "" {
		return nil, fmt.Errorf("env RABBIT_PORT is not set")
	}
	rabbituser := os.Getenv("RABBIT_USER")
	if rabbituser == "" {
		return nil, fmt.Errorf("env RABBIT_USER is not set")
	}
	rabbitpass := os.Getenv("RABBIT_PASSWORD")
	if rabbitpass == "" {
		return nil, fmt.Errorf("env RABBIT_PASSWORD is not set")
	}
	return amqp.Dial("amqp://" + rabbituser + ":" + rabbitpass + "@" + rabbiturl + ":" + rabbitport + "/futurecash")
}

func declare(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,  // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	return err
}

// Заявки на вывод -> исполнитель
type RabbitPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewRabbitPublisher() (*RabbitPublisher, error) {
	conn, err := dial()
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	err = declare(ch, queueout)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &RabbitPublisher{conn, ch}, nil
}

func (r *RabbitPublisher) PublishRedemption(ctx context.Context, redemption model.RewardRedemption) error {
	msg, err := json.Marshal(redemption)
	if err != nil {
		return err
	}
	return r.ch.PublishWithContext(ctx,
		"",       // exchange
		queueout, // routing key
		false,    // mandatory
		false,    // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    redemption.ID.String(),
			Body:         msg,
		})
}

func (r *RabbitPublisher) Close() {
	r.ch.Close()
	r.conn.Close()
}

// Статусы заявок от исполнителя
type RabbitConsumer struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	Msg  <-chan amqp.Delivery
}

func NewRabbitConsumer(prefetch int) (*RabbitConsumer, error) {
	conn, err := dial()
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	err = declare(ch, queue)
	if err == nil {
		err = ch.Qos(prefetch, 0, false)
	}
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	msg, err := ch.Consume(
		queue, // queue
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &RabbitConsumer{conn, ch, msg}, nil
}

func (r *RabbitConsumer) Close() {
	r.ch.Close()
	r.conn.Close()
}

// разбор сообщения о статусе
func DecodeStatus(body []byte) (uuid.UUID, model.RedemptionStatusUpdate, error) {
	update := model.RedemptionStatusUpdate{}
	err := json.Unmarshal(body, &update)
	if err != nil {
		return uuid.Nil, update, fmt.Errorf("status message: %s: %w", err.Error(), model.ErrBadRequest)
	}
	id, err := uuid.Parse(update.RedemptionID)
	if err != nil {
		return uuid.Nil, update, fmt.Errorf("redemption id: %w", model.ErrBadRequest)
	}
	return id, update, nil
}
