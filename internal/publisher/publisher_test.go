package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errspkg "github.com/jobsphere/ms-job/internal/errors"
	"github.com/jobsphere/ms-job/internal/event"
	"github.com/jobsphere/ms-job/internal/job"
	"github.com/jobsphere/ms-job/internal/jsoncodec"
	"github.com/jobsphere/ms-job/internal/logging"
)

type capturingPublisher struct {
	topic    string
	messages []*message.Message
	err      error
	closed   bool
}

func (p *capturingPublisher) Publish(topic string, messages ...*message.Message) error {
	if p.err != nil {
		return p.err
	}
	p.topic = topic
	p.messages = append(p.messages, messages...)
	return nil
}

func (p *capturingPublisher) Close() error {
	p.closed = true
	return nil
}

func testFixtures() (job.Application, job.Job) {
	app := job.Application{
		ID:             "app-1",
		JobOfferID:     "job-1",
		UserID:         "user-1",
		ApplicantName:  "Ada",
		ApplicantEmail: "ada@example.com",
		Status:         job.StatusPending,
		CreatedAt:      time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	offer := job.Job{
		ID:           "job-1",
		Title:        "Backend Engineer",
		Company:      "Acme",
		Description:  "a description long enough to store",
		Requirements: []string{"go"},
		Location:     "Madrid",
		IsRemote:     true,
	}
	return app, offer
}

func TestApplicationCreatedEnvelopeShape(t *testing.T) {
	sink := &capturingPublisher{}
	p, err := New(sink, "job-events", logging.Nop(), nil)
	require.NoError(t, err)

	app, offer := testFixtures()
	p.ApplicationCreated(context.Background(), app, offer, []byte(`{"skills":["go"]}`))

	require.Len(t, sink.messages, 1)
	assert.Equal(t, "job-events", sink.topic)

	var env event.Envelope
	require.NoError(t, jsoncodec.Unmarshal(sink.messages[0].Payload, &env))
	assert.Equal(t, event.TypeApplicationCreated, env.Type)
	assert.Equal(t, event.Source, env.Metadata.Source)
	assert.NotEmpty(t, env.Metadata.Timestamp)

	var payload event.ApplicationCreated
	require.NoError(t, jsoncodec.Unmarshal(env.Data, &payload))
	assert.Equal(t, "app-1", payload.ApplicationID)
	assert.Equal(t, "job-1", payload.JobOfferID)
	assert.Equal(t, "Ada", payload.ApplicantName)
	assert.Equal(t, "Backend Engineer", payload.JobOffer.Title)
	assert.True(t, payload.JobOffer.IsRemote)
	assert.JSONEq(t, `{"skills":["go"]}`, string(payload.Profile))
}

func TestApplicationCreatedSwallowsPublishFailure(t *testing.T) {
	sink := &capturingPublisher{err: errors.New("broker gone")}
	p, err := New(sink, "job-events", logging.Nop(), nil)
	require.NoError(t, err)

	app, offer := testFixtures()

	// Must not panic and must not surface the error; the caller's workflow
	// already committed.
	p.ApplicationCreated(context.Background(), app, offer, nil)
	assert.Empty(t, sink.messages)
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil, "job-events", logging.Nop(), nil)
	require.ErrorIs(t, err, errspkg.ErrPublisherRequired)

	_, err = New(&capturingPublisher{}, "", logging.Nop(), nil)
	require.ErrorIs(t, err, errspkg.ErrTopicRequired)
}

func TestCloseReleasesPublisher(t *testing.T) {
	sink := &capturingPublisher{}
	p, err := New(sink, "job-events", logging.Nop(), nil)
	require.NoError(t, err)

	require.NoError(t, p.Close())
	assert.True(t, sink.closed)
}
