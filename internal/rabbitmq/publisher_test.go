package rabbitmq

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublisherFallsBackToNoop(t *testing.T) {
	p := NewPublisher("", "storefront.events")

	assert.Equal(t, "noop", PublisherMode(p))
	assert.Equal(t, "empty amqp url", PublisherNoopReason(p))
	require.NoError(t, p.Publish(context.Background(), "audit.messaging", map[string]string{"k": "v"}, nil))
	require.NoError(t, p.Close())
}
