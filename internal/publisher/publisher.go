// Package publisher emits domain events triggered by local writes. It is
// independent of the consumer loop.
package publisher

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/jobsphere/ms-job/internal/event"
	"github.com/jobsphere/ms-job/internal/ids"
	"github.com/jobsphere/ms-job/internal/job"
	"github.com/jobsphere/ms-job/internal/jsoncodec"
	"github.com/jobsphere/ms-job/internal/logging"
	"github.com/jobsphere/ms-job/internal/metrics"

	errspkg "github.com/jobsphere/ms-job/internal/errors"
)

// Publisher builds and emits application-created events.
//
// Delivery is at most once: a single publish attempt, failures logged and
// swallowed. There is no retry and no outbox behind this path, so the
// triggering workflow's success never depends on the broker. If stronger
// guarantees are ever needed, the alternative is a transactional outbox
// relayed by a separate retryable process.
type Publisher struct {
	pub     message.Publisher
	topic   string
	log     logging.ServiceLogger
	metrics *metrics.Pipeline
}

func New(pub message.Publisher, topic string, log logging.ServiceLogger, m *metrics.Pipeline) (*Publisher, error) {
	if pub == nil {
		return nil, errspkg.ErrPublisherRequired
	}
	if topic == "" {
		return nil, errspkg.ErrTopicRequired
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Publisher{pub: pub, topic: topic, log: log, metrics: m}, nil
}

// ApplicationCreated publishes the snapshot of a freshly persisted
// application and the job offer it targets. Call it only after the
// application's own transaction has committed.
func (p *Publisher) ApplicationCreated(ctx context.Context, app job.Application, offer job.Job, profile json.RawMessage) {
	payload := event.ApplicationCreated{
		ApplicationID:  app.ID,
		JobOfferID:     app.JobOfferID,
		UserID:         app.UserID,
		ApplicantName:  app.ApplicantName,
		ApplicantEmail: app.ApplicantEmail,
		Profile:        profile,
		JobOffer: event.JobOfferSnapshot{
			Title:        offer.Title,
			Company:      offer.Company,
			Description:  offer.Description,
			Requirements: offer.Requirements,
			Location:     offer.Location,
			IsRemote:     offer.IsRemote,
		},
	}

	data, err := jsoncodec.Marshal(payload)
	if err != nil {
		p.failed(err, app.ID)
		return
	}

	body, err := jsoncodec.Marshal(event.Envelope{
		Type: event.TypeApplicationCreated,
		Data: data,
		Metadata: event.Metadata{
			Source:    event.Source,
			Timestamp: app.CreatedAt.Format("2006-01-02T15:04:05.999999Z07:00"),
		},
	})
	if err != nil {
		p.failed(err, app.ID)
		return
	}

	msg := message.NewMessage(ids.New(), body)
	msg.SetContext(ctx)

	if err := p.pub.Publish(p.topic, msg); err != nil {
		p.failed(err, app.ID)
		return
	}

	p.metrics.Published()
	p.log.Info("Application event published", logging.LogFields{
		"topic":          p.topic,
		"application_id": app.ID,
		"job_offer_id":   app.JobOfferID,
	})
}

func (p *Publisher) failed(err error, applicationID string) {
	p.metrics.PublishFailed()
	p.log.Error("Publishing application event failed", err, logging.LogFields{
		"topic":          p.topic,
		"application_id": applicationID,
	})
}

// Close flushes and releases the underlying publisher.
func (p *Publisher) Close() error {
	return p.pub.Close()
}
