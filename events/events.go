package events

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const DefaultSubject = "rancher.claims"

// Event is the message published for every finished claim attempt.
type Event struct {
	Owner   string    `json:"owner"`
	AssetID uint64    `json:"asset_id"`
	Name    string    `json:"name"`
	Attempt int       `json:"attempt"`
	Success bool      `json:"success"`
	TxID    string    `json:"tx_id,omitempty"`
	Error   string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

type conn interface {
	Publish(subject string, data []byte) error
}

// Publisher sends claim outcomes to NATS. Each event goes to the base subject and to
// a per asset subject below it.
type Publisher struct {
	nc      conn
	close   func() error
	subject string
	owner   string
}

// Connect dials the NATS server at url and reconnects forever.
func Connect(url, subject, owner string) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("rancher-claimer"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("Disconnected from NATS")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("Reconnected to NATS")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	log.Info().Str("url", url).Str("subject", subject).Msg("Publishing claim events to NATS")
	return newPublisher(nc, nc.Drain, subject, owner), nil
}

func newPublisher(nc conn, closeFn func() error, subject, owner string) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Publisher{
		nc:      nc,
		close:   closeFn,
		subject: subject,
		owner:   owner,
	}
}

func (p *Publisher) assetSubject(assetID uint64) string {
	return fmt.Sprintf("%s.asset.%d", p.subject, assetID)
}

func newEvent(owner string, outcome types.ClaimOutcome) Event {
	e := Event{
		Owner:   owner,
		AssetID: outcome.AssetID,
		Name:    outcome.Name,
		Attempt: outcome.Attempt,
		Success: outcome.Success(),
		TxID:    outcome.TxID,
		At:      outcome.At,
	}
	if outcome.Err != nil {
		e.Error = outcome.Err.Error()
	}
	return e
}

func (p *Publisher) Observe(outcome types.ClaimOutcome) {
	data, err := json.Marshal(newEvent(p.owner, outcome))
	if err != nil {
		log.Error().Err(err).Uint64("asset_id", outcome.AssetID).Msg("Cannot encode claim event")
		return
	}

	for _, subject := range []string{p.subject, p.assetSubject(outcome.AssetID)} {
		if err := p.nc.Publish(subject, data); err != nil {
			published.WithLabelValues("failed").Inc()
			log.Error().Err(err).Str("subject", subject).Msg("Failed to publish claim event")
			continue
		}
		published.WithLabelValues("ok").Inc()
	}
}

// Close flushes pending events and closes the connection.
func (p *Publisher) Close() error {
	if p.close == nil {
		return nil
	}
	return p.close()
}
