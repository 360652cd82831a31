package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *ConfigState {
	cfg := NewConfigState()
	cfg.Names[CfgPollServiceAccount] = "pollsvc"
	cfg.Names[CfgLedgerServiceAccount] = "ledgersvc"
	cfg.Ints[CfgVotingDurationSec] = 3600
	cfg.Ints[CfgLastBallotID] = 0
	cfg.Ints[CfgPaused] = 0
	return cfg
}

func TestConfigState_Validate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	t.Run("missing poll service account", func(t *testing.T) {
		cfg := validConfig()
		delete(cfg.Names, CfgPollServiceAccount)
		assert.ErrorIs(t, cfg.Validate(), ErrValidation)
	})

	t.Run("missing voting duration", func(t *testing.T) {
		cfg := validConfig()
		delete(cfg.Ints, CfgVotingDurationSec)
		assert.ErrorIs(t, cfg.Validate(), ErrValidation)
	})

	t.Run("non-positive voting duration", func(t *testing.T) {
		cfg := validConfig()
		cfg.Ints[CfgVotingDurationSec] = 0
		assert.ErrorIs(t, cfg.Validate(), ErrValidation)
	})
}

func TestConfigState_Paused(t *testing.T) {
	t.Run("missing flag is an error and reads paused", func(t *testing.T) {
		cfg := NewConfigState()
		paused, err := cfg.Paused()
		assert.Error(t, err)
		assert.True(t, paused)
	})

	t.Run("explicit values", func(t *testing.T) {
		cfg := validConfig()
		paused, err := cfg.Paused()
		require.NoError(t, err)
		assert.False(t, paused)

		cfg.Ints[CfgPaused] = 1
		paused, err = cfg.Paused()
		require.NoError(t, err)
		assert.True(t, paused)
	})
}

func TestConfigState_Counters(t *testing.T) {
	cfg := validConfig()

	assert.Equal(t, int64(1), cfg.NextBallotID())
	assert.Equal(t, int64(2), cfg.NextBallotID())
	assert.Equal(t, int64(2), cfg.Ints[CfgLastBallotID])

	assert.Equal(t, int64(1), cfg.NextSenderID())
	assert.Equal(t, int64(2), cfg.NextSenderID())
}
