package kafka

import (
	"testing"
	"time"

	"github.com/meteopt/aviso/internal/monitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeAlert(t *testing.T) {
	at := time.Date(2025, time.March, 20, 15, 0, 0, 0, time.UTC)
	alert := monitor.Alert{
		Assessment: monitor.Assessment{
			District:    "Lisboa",
			AreaID:      "LSB",
			Safe:        false,
			Reason:      "Agitação Marítima",
			LevelName:   "red",
			Lat:         38.72,
			Lon:         -9.14,
			EvaluatedAt: at,
		},
		Transition: "became_unsafe",
	}

	msg, err := serializeAlert(alert)
	require.NoError(t, err)

	assert.Equal(t, []byte("LSB"), msg.Key)
	assert.Contains(t, string(msg.Value), `"district":"Lisboa"`)
	assert.Contains(t, string(msg.Value), `"transition":"became_unsafe"`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "transition", msg.Headers[0].Key)
	assert.Equal(t, []byte("became_unsafe"), msg.Headers[0].Value)
	assert.Equal(t, "level", msg.Headers[1].Key)
	assert.Equal(t, []byte("red"), msg.Headers[1].Value)
	assert.Equal(t, "published_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(at.Format(time.RFC3339)), msg.Headers[2].Value)
}
