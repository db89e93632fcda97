package suite

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbandon(t *testing.T) {
	connErr := errors.New("connection refused")

	t.Run("Purge succeeds", func(t *testing.T) {
		purged := false

		err := abandon(connErr, func() error {
			purged = true
			return nil
		})

		require.Error(t, err)
		assert.True(t, purged)
		assert.ErrorIs(t, err, connErr)
		assert.Equal(t, "could not connect to redis: connection refused", err.Error())
	})

	t.Run("Purge fails too", func(t *testing.T) {
		purgeErr := errors.New("no such container")

		// When: cleanup fails after the connection failed
		err := abandon(connErr, func() error { return purgeErr })

		// Then: neither error is lost
		require.Error(t, err)
		assert.ErrorIs(t, err, connErr)
		assert.ErrorIs(t, err, purgeErr)
		assert.Contains(t, err.Error(), "connection refused")
	})
}
