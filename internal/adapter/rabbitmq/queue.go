package rabbitmq

import (
	"encoding/json"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/catattack05/functionary/internal/domain"
)

// BuildMessage 是构建队列中的消息体，只携带 build id。
type BuildMessage struct {
	BuildID string `json:"build_id"`
}

func decodeBuildMessage(body []byte) (BuildMessage, error) {
	var msg BuildMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return msg, fmt.Errorf("%w: decode build message: %v", domain.ErrInvalidInput, err)
	}
	msg.BuildID = strings.TrimSpace(msg.BuildID)
	if msg.BuildID == "" {
		return msg, fmt.Errorf("%w: build message without build_id", domain.ErrInvalidInput)
	}
	return msg, nil
}

type queueDeclarer interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
}

// declareQueue 声明持久化的构建队列，生产者与消费者都会调用，声明是幂等的。
func declareQueue(ch queueDeclarer, name string) error {
	_, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", name, err)
	}
	return nil
}
