package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-dol-engine/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	generated := time.Date(2024, 7, 1, 6, 0, 0, 0, time.UTC)
	dol := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	band := domain.ConfidenceHigh
	intel := domain.WeatherIntel{
		Address:        "123 Main St, Prescott, AZ",
		Lat:            34.541,
		Lng:            -112.469,
		RecommendedDOL: &dol,
		DOLConfidence:  &band,
		GeneratedAt:    generated,
	}

	msg, err := serializeToMessage("prop-1", intel)
	require.NoError(t, err)

	assert.Equal(t, []byte("prop-1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"recommendedDOL":"2024-06-01T00:00:00Z"`)
	assert.Contains(t, string(msg.Value), `"dolConfidence":"HIGH"`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "property_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("prop-1"), msg.Headers[0].Value)
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(generated.Format(time.RFC3339)), msg.Headers[1].Value)
}
