package deck

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankPoints(t *testing.T) {
	tests := []struct {
		name     string
		rank     Rank
		expected int
	}{
		{"ace scores fifteen", Ace, 15},
		{"two scores face value", Two, 2},
		{"nine scores face value", Nine, 9},
		{"ten scores face value", Ten, 10},
		{"jack scores ten", Jack, 10},
		{"queen scores ten", Queen, 10},
		{"king scores ten", King, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.rank.Points())
		})
	}
}

func TestCardJSON(t *testing.T) {
	card := NewCard(0, Spades, Ace)

	data, err := json.Marshal(card)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"0-spades-ace","suit":"spades","rank":"ace"}`, string(data))

	var back Card
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, card, back)
}

func TestSuitJSONRejectsUnknown(t *testing.T) {
	var s Suit
	assert.Error(t, json.Unmarshal([]byte(`"stars"`), &s))
}

func TestRankJSONRejectsUnknown(t *testing.T) {
	var r Rank
	assert.Error(t, json.Unmarshal([]byte(`"fourteen"`), &r))
}

func TestCardString(t *testing.T) {
	assert.Equal(t, "A♠", NewCard(0, Spades, Ace).String())
	assert.Equal(t, "T♥", NewCard(0, Hearts, Ten).String())
	assert.Equal(t, "7♦", NewCard(1, Diamonds, Seven).String())
}

func TestCardIsWild(t *testing.T) {
	three := NewCard(0, Clubs, Three)
	assert.True(t, three.IsWild(Three))
	assert.False(t, three.IsWild(Four))
}
