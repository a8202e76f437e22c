package queue

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

const dialTimeout = 3 * time.Second

// Publisher sends domain events to RabbitMQ.  It dials per message; the
// publish rate is bounded by ticket sales, so connection reuse is not worth
// the reconnect bookkeeping.  Errors are logged and returned so callers can
// ignore them without interrupting the request.
type Publisher struct {
    url string
    log *zap.Logger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log *zap.Logger) *Publisher {
    return &Publisher{url: url, log: log.Named("publisher")}
}

// Publish marshals payload as JSON and sends it as a persistent message to
// the durable queue named routingKey.
func (p *Publisher) Publish(ctx context.Context, routingKey string, payload any) error {
    body, err := json.Marshal(payload)
    if err != nil {
        p.log.Warn("marshal event failed", zap.String("queue", routingKey), zap.Error(err))
        return err
    }

    conn, err := amqp.DialConfig(p.url, amqp.Config{
        Dial:      amqp.DefaultDial(dialTimeout),
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
    })
    if err != nil {
        p.log.Warn("dial failed", zap.Error(err))
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.log.Warn("channel open failed", zap.Error(err))
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(routingKey, true, false, false, false, nil); err != nil {
        p.log.Warn("queue declare failed", zap.String("queue", routingKey), zap.Error(err))
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Type:         routingKey,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", routingKey, false, false, pub); err != nil {
        p.log.Warn("publish failed", zap.String("queue", routingKey), zap.Error(err))
        return err
    }
    return nil
}
