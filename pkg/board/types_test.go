package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCardOwners(t *testing.T) {
	tests := []struct {
		name     string
		cardName string
		expected []string
	}{
		{
			name:     "single owner",
			cardName: "alice",
			expected: []string{"alice"},
		},
		{
			name:     "shared card",
			cardName: "alice+bob",
			expected: []string{"alice", "bob"},
		},
		{
			name:     "three owners",
			cardName: "alice+bob+carol",
			expected: []string{"alice", "bob", "carol"},
		},
		{
			name:     "empty name",
			cardName: "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := Card{Name: tt.cardName}
			assert.Equal(t, tt.expected, card.Owners())
		})
	}
}

func TestCardHasOwner(t *testing.T) {
	card := Card{Name: "alice+bob"}

	assert.True(t, card.HasOwner("alice"))
	assert.True(t, card.HasOwner("bob"))
	assert.False(t, card.HasOwner("carol"))
	assert.False(t, card.HasOwner("ali"), "partial names must not match")
}

func TestPositionValidate(t *testing.T) {
	for _, pos := range []Position{PositionDefault, PositionTop, PositionBottom} {
		assert.NoError(t, pos.Validate())
	}
	assert.Error(t, Position("middle").Validate())
}
