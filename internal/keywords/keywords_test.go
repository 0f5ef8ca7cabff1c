package keywords

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatcherHits(t *testing.T) {
	m := NewMatcher([]string{"NHVR", "chain of responsibility", "fatigue", "nhvr", ""})

	hits := m.Hits("The NHVR issued new Chain of Responsibility guidance on fatigue. NHVR again.")
	assert.ElementsMatch(t, []string{"nhvr", "chain of responsibility", "fatigue"}, hits)
	assert.Equal(t, 3, m.Count("nhvr chain of responsibility fatigue"))
	assert.Len(t, m.Keywords(), 3)
}

func TestMatcherSubstringSemantics(t *testing.T) {
	m := NewMatcher([]string{"fine"})
	assert.Equal(t, []string{"fine"}, m.Hits("operators were fined heavily"))
	assert.Empty(t, m.Hits("no match here"))
}

func TestMatcherEmpty(t *testing.T) {
	var m *Matcher
	assert.Nil(t, m.Hits("anything"))
	assert.Nil(t, NewMatcher(nil).Hits("anything"))
}

func TestWordMatcher(t *testing.T) {
	m := NewWordMatcher([]string{"cor", "fine", "vehicle check", "Chain of Responsibility"})

	assert.Empty(t, m.Hits("The court record was fined and refined"))
	assert.ElementsMatch(t,
		[]string{"cor", "fine", "vehicle check", "chain of responsibility"},
		m.Hits("CoR: a $500 fine. Daily vehicle-check and chain-of-responsibility duties."))
}

func TestWordMatcherPlurals(t *testing.T) {
	m := NewWordMatcher([]string{"driver", "tyre", "brake", "penalty", "fine", "tips", "cor", "vehicle check"})

	assert.ElementsMatch(t,
		[]string{"driver", "tyre", "brake", "penalty", "fine", "tip", "vehicle check"},
		m.Hits("Drivers share tips on tyres, brakes and vehicle checks after fines and penalties"))
	assert.Empty(t, m.Hits("Corridor upgrade: courts refined the definitions"))
}

func TestSingular(t *testing.T) {
	tests := map[string]string{
		"drivers":   "driver",
		"penalties": "penalty",
		"tips":      "tip",
		"bus":       "bus",
		"cor":       "cor",
		"business":  "business",
		"status":    "status",
		"analysis":  "analysis",
		"safety":    "safety",
	}
	for in, want := range tests {
		assert.Equal(t, want, singular(in), in)
	}
}
