// Package service provides functions to publish attraction change events to
// RabbitMQ.  Errors are logged and returned so callers can ignore failures
// without interrupting the request flow.
package service

import (
    "context"
    "encoding/json"
    "log"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/attraction-registry/internal/config"
    "github.com/iliyamo/attraction-registry/internal/queue"
)

// EventPublisher delivers attraction change events.
type EventPublisher interface {
    Publish(ctx context.Context, event queue.AttractionChangedEvent) error
}

// NewEventPublisher returns an AMQP publisher when events are enabled and a
// no-op publisher otherwise.
func NewEventPublisher(cfg config.EventsConfig) EventPublisher {
    if !cfg.Enabled {
        return NopPublisher{}
    }
    return &AMQPPublisher{URL: cfg.URL, Queue: cfg.Queue}
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(context.Context, queue.AttractionChangedEvent) error { return nil }

// AMQPPublisher publishes each event on its own short-lived connection to the
// default exchange, routed to Queue.
type AMQPPublisher struct {
    URL   string
    Queue string
}

// Publish sends event as a persistent JSON message.  The queue is declared
// durable on every call so the first publish creates it.
func (p *AMQPPublisher) Publish(ctx context.Context, event queue.AttractionChangedEvent) error {
    conn, err := amqp.Dial(p.URL)
    if err != nil {
        log.Printf("rabbitmq: dial failed: %v", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Printf("rabbitmq: channel open failed: %v", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(
        p.Queue, // name
        true,    // durable
        false,   // autoDelete
        false,   // exclusive
        false,   // noWait
        nil,     // args
    ); err != nil {
        log.Printf("rabbitmq: queue declare failed: %v", err)
        return err
    }

    body, err := json.Marshal(event)
    if err != nil {
        log.Printf("rabbitmq: marshal event failed: %v", err)
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        MessageId:    event.EventID,
        Type:         "attraction." + event.Action,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }

    if err := ch.PublishWithContext(ctx,
        "",      // default exchange
        p.Queue, // routing key = queue name
        false,   // mandatory
        false,   // immediate
        pub,
    ); err != nil {
        log.Printf("rabbitmq: publish failed: %v", err)
        return err
    }
    return nil
}
