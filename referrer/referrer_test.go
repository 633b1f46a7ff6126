package referrer_test

import (
	"testing"

	"github.com/archonkit/archon/referrer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type holder struct {
	strongArch string
	strongID   uint64
	hasWeak    bool
}

func (h holder) VisitReferrers(v referrer.Visitor) {
	if h.strongArch != "" {
		v.VisitStrong(h.strongArch, h.strongID)
	}
	if h.hasWeak {
		v.VisitWeak("other", 99, 1)
	}
}

func TestScanFindsDanglingStrongReference(t *testing.T) {
	sources := map[string]referrer.Referrable{
		"comp/Y@otherEntity": holder{strongArch: "X", strongID: 5},
		"comp/Z@unrelated":   holder{strongArch: "X", strongID: 6},
		"comp/W@dyingX":      holder{strongArch: "X", strongID: 5},
	}

	violations := referrer.Scan(sources, "X", 5, "comp/W@dyingX")
	require.Len(t, violations, 1)
	assert.Equal(t, "comp/Y@otherEntity", violations[0].Location)
	assert.Equal(t, "X", violations[0].Archetype)
	assert.Equal(t, uint64(5), violations[0].ID)
}

func TestScanIgnoresWeakReferences(t *testing.T) {
	sources := map[string]referrer.Referrable{
		"comp/Y": holder{hasWeak: true},
	}
	violations := referrer.Scan(sources, "other", 99, "")
	assert.Empty(t, violations)
}

func TestNoneVisitsNothing(t *testing.T) {
	var n referrer.None
	n.VisitReferrers(nil) // must not dereference the visitor
}
