package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeRoundTrip(t *testing.T) {
	msg := Message{Type: TypeVisitRequest, Body: []byte("req-1|extra|pipes")}

	got, err := deserialize(serialize(msg))
	require.NoError(t, err)
	assert.Equal(t, msg.Type, got.Type)
	assert.Equal(t, msg.Body, got.Body, "pipes in the body must survive")
}

func TestDeserialize_NoSeparator(t *testing.T) {
	got, err := deserialize("plain")
	require.NoError(t, err)
	assert.Empty(t, got.Type)
	assert.Equal(t, "plain", string(got.Body))
}
