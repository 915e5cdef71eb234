package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/catattack05/functionary/internal/service"
)

type consumeChannel interface {
	queueDeclarer
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// TaskRunner 消费构建任务，*service.WorkerPool 实现了它。
type TaskRunner interface {
	Size() int
	Run(ctx context.Context, tasks <-chan service.Task) error
}

type Consumer struct {
	ch    consumeChannel
	queue string
}

func NewConsumer(ch consumeChannel, queue string) *Consumer {
	return &Consumer{ch: ch, queue: queue}
}

// Start 手动确认模式消费构建队列，阻塞到 ctx 取消或通道关闭。
// prefetch 等于 worker 数，消息在处理结束后才 Ack；格式错误的消息直接丢弃。
// 重复投递照常交给 worker，非 CREATED 状态的构建会被拒绝执行，因此不会重跑。
func (c *Consumer) Start(ctx context.Context, pool TaskRunner) error {
	if err := declareQueue(c.ch, c.queue); err != nil {
		return err
	}
	if err := c.ch.Qos(pool.Size(), 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := c.ch.Consume(
		c.queue,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}
	slog.Info("consumer started", "queue", c.queue, "workers", pool.Size())

	tasks := make(chan service.Task)
	go c.dispatch(ctx, deliveries, tasks)
	return pool.Run(ctx, tasks)
}

func (c *Consumer) dispatch(ctx context.Context, deliveries <-chan amqp.Delivery, tasks chan<- service.Task) {
	defer close(tasks)
	for {
		select {
		case <-ctx.Done():
			slog.Info("consumer shutting down", "queue", c.queue)
			return
		case d, ok := <-deliveries:
			if !ok {
				slog.Warn("delivery channel closed", "queue", c.queue)
				return
			}
			task, ok := toTask(d)
			if !ok {
				continue
			}
			select {
			case tasks <- task:
			case <-ctx.Done():
				// 未开始处理的消息退回队列
				if err := d.Nack(false, true); err != nil {
					slog.Warn("failed to requeue delivery", "build_id", task.BuildID, "error", err)
				}
				return
			}
		}
	}
}

func toTask(d amqp.Delivery) (service.Task, bool) {
	msg, err := decodeBuildMessage(d.Body)
	if err != nil {
		slog.Error("dropping malformed build message", "error", err)
		if err := d.Nack(false, false); err != nil {
			slog.Warn("failed to nack delivery", "error", err)
		}
		return service.Task{}, false
	}
	if d.Redelivered {
		slog.Info("build message redelivered", "build_id", msg.BuildID)
	}
	return service.Task{
		BuildID: msg.BuildID,
		Done: func(error) {
			if err := d.Ack(false); err != nil {
				slog.Warn("failed to ack delivery", "build_id", msg.BuildID, "error", err)
			}
		},
	}, true
}
