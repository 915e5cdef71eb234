package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/catattack05/functionary/internal/port"
)

type publishChannel interface {
	queueDeclarer
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

var _ port.TaskPublisher = (*Publisher)(nil)

type Publisher struct {
	ch    publishChannel
	queue string
}

func NewPublisher(ch publishChannel, queue string) (*Publisher, error) {
	if err := declareQueue(ch, queue); err != nil {
		return nil, err
	}
	return &Publisher{ch: ch, queue: queue}, nil
}

// PublishBuild 通过默认 exchange 直接投递到构建队列。
func (p *Publisher) PublishBuild(ctx context.Context, buildID string) error {
	body, err := json.Marshal(BuildMessage{BuildID: buildID})
	if err != nil {
		return err
	}
	err = p.ch.PublishWithContext(
		ctx,
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    buildID,
		},
	)
	if err != nil {
		return fmt.Errorf("publish build %s: %w", buildID, err)
	}
	return nil
}
