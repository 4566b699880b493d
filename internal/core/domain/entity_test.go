package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityRecord_Validate(t *testing.T) {
	tests := []struct {
		name      string
		entity    EntityRecord
		wantField string
	}{
		{"valid", EntityRecord{ID: "bitcoin", Name: "Bitcoin", Symbol: "BTC"}, ""},
		{"missing id", EntityRecord{Name: "Bitcoin", Symbol: "BTC"}, "id"},
		{"blank name", EntityRecord{ID: "bitcoin", Name: "  ", Symbol: "BTC"}, "name"},
		{"missing symbol", EntityRecord{ID: "bitcoin", Name: "Bitcoin"}, "symbol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entity.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.wantField, ve.Field)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestValidateEntities(t *testing.T) {
	t.Run("empty batch", func(t *testing.T) {
		assert.ErrorIs(t, ValidateEntities(nil), ErrInvalidInput)
	})

	t.Run("duplicate ids", func(t *testing.T) {
		err := ValidateEntities([]EntityRecord{
			{ID: "eth", Name: "Ethereum", Symbol: "ETH"},
			{ID: "eth", Name: "Ether", Symbol: "ETH"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate entity eth")
	})

	t.Run("one invalid rejects all", func(t *testing.T) {
		err := ValidateEntities([]EntityRecord{
			{ID: "eth", Name: "Ethereum", Symbol: "ETH"},
			{ID: "sol", Name: "Solana"},
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("valid batch", func(t *testing.T) {
		assert.NoError(t, ValidateEntities([]EntityRecord{
			{ID: "eth", Name: "Ethereum", Symbol: "ETH"},
			{ID: "sol", Name: "Solana", Symbol: "SOL"},
		}))
	})
}

func TestFragmentID(t *testing.T) {
	assert.Equal(t, "bitcoin-chunk-0", FragmentID("bitcoin", 0))
	assert.Equal(t, "usd-coin-chunk-12", FragmentID("usd-coin", 12))
}
