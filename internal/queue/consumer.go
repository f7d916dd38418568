// Package queue contains the background consumer that listens to the
// attraction change queue and writes one log line per event to
// <log dir>/attraction.log.
package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/attraction-registry/internal/config"
)

const logFileName = "attraction.log"

// StartAttractionConsumer connects to RabbitMQ, declares the change queue
// (durable), and consumes messages until ctx is cancelled.  Each message is
// appended to the log file in cfg.LogDir.  Connection failures are retried
// with exponential backoff capped at 30s; a message that cannot be handled is
// rejected without requeue so the loop keeps going.
func StartAttractionConsumer(ctx context.Context, cfg config.EventsConfig) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(cfg.URL)
        if err != nil {
            log.Printf("attraction-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = consumeLoop(ctx, conn, cfg)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Printf("attraction-consumer: consume loop ended: %v; reconnecting", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, cfg config.EventsConfig) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Printf("attraction-consumer: set QoS failed: %v", err)
    }

    if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.ConsumeWithContext(ctx, cfg.Queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        if err := handleMessage(cfg.LogDir, d.Body); err != nil {
            log.Printf("attraction-consumer: handle message failed: %v", err)
            _ = d.Nack(false, false)
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

func handleMessage(logDir string, body []byte) error {
    var ev AttractionChangedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Action == "" {
        return errors.New("event has no action")
    }
    if err := os.MkdirAll(logDir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", logDir, err)
    }
    f, err := os.OpenFile(filepath.Join(logDir, logFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    a := ev.Attraction
    line := fmt.Sprintf("[%s] Attraction %s | event_id=%s | id=%d | name=%q | location=%q | category=%q | rating=%s\n",
        ev.OccurredAt, ev.Action, ev.EventID, a.ID,
        logValue(a.Value("name")), logValue(a.Value("location")), logValue(a.Value("category")), logValue(a.Value("rating")))

    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// logValue renders an attribute for the log line.  Strings are written as
// is, anything else as JSON since attributes keep whatever type was sent.
func logValue(v any) string {
    switch t := v.(type) {
    case nil:
        return ""
    case string:
        return t
    }
    b, err := json.Marshal(v)
    if err != nil {
        return fmt.Sprint(v)
    }
    return string(b)
}

// sleep waits for d or until ctx is done, reporting whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
