package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobsphere/ms-job/internal/jsoncodec"
)

func TestParseType(t *testing.T) {
	assert.Equal(t, TypeJobCreated, ParseType("JOB_CREATED"))
	assert.Equal(t, TypeJobUpdated, ParseType("JOB_UPDATED"))
	assert.Equal(t, TypeJobDeleted, ParseType("JOB_DELETED"))

	assert.Equal(t, TypeUnknown, ParseType("FOO"))
	assert.Equal(t, TypeUnknown, ParseType(""))
	assert.Equal(t, TypeUnknown, ParseType("job_created"))
}

func TestDecodeEnvelope(t *testing.T) {
	body := []byte(`{
		"type": "JOB_CREATED",
		"data": {"source_job_id": "src-1", "title": "Data Engineer"},
		"metadata": {"source": "scraper"}
	}`)

	env, err := DecodeEnvelope(body)
	require.NoError(t, err)
	assert.Equal(t, TypeJobCreated, env.EventType())
	assert.Equal(t, "scraper", env.Metadata.Source)

	var payload JobPayload
	require.NoError(t, jsoncodec.Unmarshal(env.Data, &payload))
	assert.Equal(t, "src-1", payload.SourceJobID)
	assert.Equal(t, "Data Engineer", payload.Title)
}

func TestDecodeEnvelopeMalformed(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`{"type": `))
	require.Error(t, err)
}
