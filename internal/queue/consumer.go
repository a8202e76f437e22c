package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// ActivityLogName is the file, under the consumer's log directory, that
// receives one line per domain event.
const ActivityLogName = "tickets.log"

// Consumer drains every domain-event queue into an append-only activity
// log.
type Consumer struct {
    url    string
    logDir string
    log    *zap.Logger
    mu     sync.Mutex // serialises writes to the activity log
}

// NewConsumer returns a Consumer for the broker at url writing under logDir.
func NewConsumer(url, logDir string, log *zap.Logger) *Consumer {
    if logDir == "" {
        logDir = "logs"
    }
    return &Consumer{url: url, logDir: logDir, log: log.Named("consumer")}
}

// Run connects, declares the queues and consumes until ctx is cancelled.
// Broker failures trigger a reconnect with exponential backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.url)
        if err != nil {
            c.log.Warn("dial failed; retrying", zap.Error(err), zap.Duration("backoff", backoff))
            if !sleepCtx(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.log.Warn("consume loop ended; reconnecting", zap.Error(err))
        if !sleepCtx(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.log.Warn("set QoS failed", zap.Error(err))
    }

    deliveries := make(chan amqp.Delivery)
    var wg sync.WaitGroup
    for _, q := range Queues {
        if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
            return fmt.Errorf("queue declare %s: %w", q, err)
        }
        msgs, err := ch.Consume(q, "", false, false, false, false, nil)
        if err != nil {
            return fmt.Errorf("queue consume %s: %w", q, err)
        }
        wg.Add(1)
        go func(q string, msgs <-chan amqp.Delivery) {
            defer wg.Done()
            for d := range msgs {
                if d.RoutingKey == "" {
                    d.RoutingKey = q
                }
                select {
                case deliveries <- d:
                case <-ctx.Done():
                    _ = d.Nack(false, true)
                    return
                }
            }
        }(q, msgs)
    }
    closed := make(chan struct{})
    go func() {
        wg.Wait()
        close(closed)
    }()

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case <-closed:
            return errors.New("deliveries channel closed")
        case d := <-deliveries:
            if err := c.handle(d.RoutingKey, d.Body); err != nil {
                c.log.Warn("handle message failed", zap.String("queue", d.RoutingKey), zap.Error(err))
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func (c *Consumer) handle(queue string, body []byte) error {
    line, err := FormatActivity(queue, body)
    if err != nil {
        return err
    }
    c.mu.Lock()
    defer c.mu.Unlock()
    if err := os.MkdirAll(c.logDir, 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(filepath.Join(c.logDir, ActivityLogName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatActivity renders one message as a single log line.
func FormatActivity(queue string, body []byte) (string, error) {
    switch queue {
    case TicketsPurchasedQueue:
        var ev TicketsPurchasedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return "", fmt.Errorf("unmarshal: %w", err)
        }
        return fmt.Sprintf("[%s] Tickets purchased | event_id=%s | event=%q | attendee_id=%s | buyer=%q | buyer_id=%d | tickets=%d | amount=%d cents | remaining=%d | sold=%d\n",
            ev.PurchasedAt, ev.EventID, ev.EventName, ev.AttendeeID, ev.BuyerName, ev.BuyerID,
            ev.TicketCount, ev.AmountCents, ev.TicketsRemaining, ev.TicketsSold), nil
    case AttendeeRemovedQueue:
        var ev AttendeeRemovedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return "", fmt.Errorf("unmarshal: %w", err)
        }
        return fmt.Sprintf("[%s] Attendee removed | event_id=%s | attendee_id=%s | attendee=%q | tickets=%d | remaining=%d | sold=%d | by=%d\n",
            ev.RemovedAt, ev.EventID, ev.AttendeeID, ev.AttendeeName, ev.TicketCount,
            ev.TicketsRemaining, ev.TicketsSold, ev.RemovedBy), nil
    case EventDeletedQueue:
        var ev EventDeletedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return "", fmt.Errorf("unmarshal: %w", err)
        }
        return fmt.Sprintf("[%s] Event deleted | event_id=%s | event=%q | owner_id=%d | attendees_dropped=%d\n",
            ev.DeletedAt, ev.EventID, ev.EventName, ev.OwnerID, ev.AttendeesDropped), nil
    }
    return "", fmt.Errorf("unknown queue %q", queue)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
