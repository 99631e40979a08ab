package events

import (
	"encoding/json"
	"log/slog"

	"github.com/streadway/amqp"
)

const eventQueue = "outreach_events"

// AMQPPublisher pushes events onto a durable queue for external consumers
// (dashboards, analytics). Publish failures are logged and dropped; event
// delivery is best-effort by contract.
type AMQPPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	log  *slog.Logger
}

func NewAMQPPublisher(url string, log *slog.Logger) (*AMQPPublisher, error) {
	if log == nil {
		log = slog.Default()
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(
		eventQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &AMQPPublisher{conn: conn, ch: ch, log: log}, nil
}

func (p *AMQPPublisher) Notify(userID uint64, ev Event) {
	body, err := json.Marshal(ev)
	if err != nil {
		p.log.Error("event marshal failed", "type", ev.Type, "err", err)
		return
	}
	err = p.ch.Publish("", eventQueue, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		p.log.Warn("event publish failed", "type", ev.Type, "err", err)
	}
}

func (p *AMQPPublisher) Close() {
	_ = p.ch.Close()
	_ = p.conn.Close()
}
