package authority_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nivmizz7/tarkov-data-overlay/pkg/authority"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/discrepancy"
)

func TestDefaultTrustsWiki(t *testing.T) {
	a, err := authority.New()
	require.NoError(t, err)

	for _, f := range discrepancy.Fields {
		assert.True(t, a.TrustsFreeText(f), f)
	}
	assert.True(t, a.TrustsFreeText(discrepancy.Reputation("Prapor")))
}

func TestOverrides(t *testing.T) {
	a, err := authority.New(
		authority.Field{Path: "reputation.*", Source: authority.SourceStructured, Priority: 10},
		authority.Field{Path: "reputation.Fence", Source: authority.SourceWiki, Priority: 10},
		authority.Field{Path: "money", Source: authority.SourceStructured, Priority: 5},
	)
	require.NoError(t, err)

	assert.False(t, a.TrustsFreeText(discrepancy.Reputation("Prapor")))
	assert.True(t, a.TrustsFreeText(discrepancy.Reputation("Fence")), "more specific pattern wins a priority tie")
	assert.False(t, a.TrustsFreeText(discrepancy.FieldMoney))
	assert.True(t, a.TrustsFreeText(discrepancy.FieldMap))
	assert.Len(t, a.List(), 4)
}

func TestNewRejectsUnknownSource(t *testing.T) {
	_, err := authority.New(authority.Field{Path: "map", Source: "tarkov.dev"})
	assert.Error(t, err)

	_, err = authority.New(authority.Field{Path: "[", Source: authority.SourceWiki})
	assert.Error(t, err)
}

func TestMatchesPattern(t *testing.T) {
	tests := []struct {
		path, pattern string
		want          bool
	}{
		{"map", "map", true},
		{"objectives.count", "objectives.*", true},
		{"objectives.count", "objectives.?ount", true},
		{"reputation.Prapor", "*", true},
		{"money", "experience", false},
		{"objectives.count", "reputation.*", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, authority.MatchesPattern(tt.path, tt.pattern), "%s ~ %s", tt.path, tt.pattern)
	}
}

func TestFilterBySource(t *testing.T) {
	fields := []authority.Field{
		{Path: "map", Source: authority.SourceStructured},
		{Path: "*", Source: authority.SourceWiki},
	}
	assert.Len(t, authority.FilterBySource(fields, authority.SourceWiki), 1)
}
