// Package bus publishes ingestion and alert events on NATS for downstream
// consumers. The bus is optional; a nil Publisher drops everything.
package bus

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
)

const (
	SubjectPointIngested = "point.ingested"
	SubjectAlertFired    = "alert.fired"
)

type Publisher struct {
	Conn *nats.Conn
}

func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	return &Publisher{Conn: conn}, nil
}

func (p *Publisher) Close() {
	if p == nil || p.Conn == nil {
		return
	}
	p.Conn.Drain()
	p.Conn.Close()
}

func (p *Publisher) Publish(subject string, payload any) error {
	if p == nil || p.Conn == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.Conn.Publish(subject, data)
}
