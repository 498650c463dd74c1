package allocation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcecred/sourcecred-go/internal/identity"
	"github.com/sourcecred/sourcecred-go/internal/parser"
)

func TestPolicyParser(t *testing.T) {
	recipient := identity.NewId()
	tests := []struct {
		name     string
		json     string
		validate func(*testing.T, Policy)
	}{
		{
			name: "immediate",
			json: `{"policyType": "IMMEDIATE", "budget": "1000000000000000000"}`,
			validate: func(t *testing.T, p Policy) {
				assert.Equal(t, Immediate, p.Type)
				assert.True(t, p.Budget.Eq(whole(1)))
			},
		},
		{
			name: "balanced",
			json: `{"policyType": "BALANCED", "budget": "0"}`,
			validate: func(t *testing.T, p Policy) {
				assert.Equal(t, Balanced, p.Type)
			},
		},
		{
			name: "recent",
			json: `{"policyType": "RECENT", "budget": "5", "discount": 0.25}`,
			validate: func(t *testing.T, p Policy) {
				assert.Equal(t, Recent, p.Type)
				assert.Equal(t, 0.25, p.Discount)
			},
		},
		{
			name: "underpaid",
			json: `{"policyType": "UNDERPAID", "budget": "5", "threshold": "2", "exponent": 0.5}`,
			validate: func(t *testing.T, p Policy) {
				assert.Equal(t, Underpaid, p.Type)
				assert.Equal(t, 0.5, p.Exponent)
				assert.Equal(t, "2", p.Threshold.String())
			},
		},
		{
			name: "special",
			json: fmt.Sprintf(`{"policyType": "SPECIAL", "budget": "5", "memo": "bounty", "recipient": %q}`, recipient),
			validate: func(t *testing.T, p Policy) {
				assert.Equal(t, Special, p.Type)
				assert.Equal(t, "bounty", p.Memo)
				assert.Equal(t, recipient, p.Recipient)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := PolicyParser().ParseJSON([]byte(tt.json))
			require.NoError(t, err)
			tt.validate(t, p)
		})
	}
}

func TestPolicyParserRejects(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{name: "unknown type", json: `{"policyType": "LOTTERY", "budget": "5"}`},
		{name: "negative budget", json: `{"policyType": "IMMEDIATE", "budget": "-5"}`},
		{name: "missing discount", json: `{"policyType": "RECENT", "budget": "5"}`},
		{name: "out of range discount", json: `{"policyType": "RECENT", "budget": "5", "discount": 2}`},
		{name: "non-numeric budget", json: `{"policyType": "IMMEDIATE", "budget": 5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PolicyParser().ParseJSON([]byte(tt.json))
			var pe *parser.Error
			assert.ErrorAs(t, err, &pe)
		})
	}
}

func TestNonnegativeGrainParserRejectsNegative(t *testing.T) {
	_, err := NonnegativeGrainParser().ParseJSON([]byte(`"-5"`))
	assert.ErrorIs(t, err, ErrInvalidBudget)
}

func TestCredHistoryParser(t *testing.T) {
	a := identity.NewId()
	data := fmt.Sprintf(`{
		"intervalEndsMs": [1000, 2000],
		"participants": [{"id": %q, "cred": [1.5, 2.5]}]
	}`, a)

	history, err := CredHistoryParser().ParseJSON([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, []int64{1000, 2000}, history.IntervalEndsMs)
	require.Len(t, history.Participants, 1)
	assert.Equal(t, a, history.Participants[0].ID)
	assert.Equal(t, []float64{1.5, 2.5}, history.Participants[0].Cred)
}

func TestCredHistoryParserRejectsBadTimestamp(t *testing.T) {
	data := `{"intervalEndsMs": [0], "participants": []}`
	_, err := CredHistoryParser().ParseJSON([]byte(data))
	var pe *parser.Error
	assert.ErrorAs(t, err, &pe)
}
