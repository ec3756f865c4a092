package suppression_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nivmizz7/tarkov-data-overlay/pkg/discrepancy"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/suppression"
)

func disc(task string, field discrepancy.Field) discrepancy.Discrepancy {
	return discrepancy.Discrepancy{TaskID: task, TaskName: task, Field: field, Priority: discrepancy.PriorityOf(field)}
}

func TestReproducedSuppressionIsNotStale(t *testing.T) {
	all := []discrepancy.Discrepancy{disc("X", discrepancy.FieldMap), disc("Y", discrepancy.FieldMap)}
	set := suppression.NewSet(suppression.Entry{TaskID: "X", Field: discrepancy.FieldMap, Source: suppression.SourceWikiWrong})

	res := suppression.Filter(all, set)

	require.Len(t, res.Surviving, 1)
	assert.Equal(t, "Y", res.Surviving[0].TaskID)
	assert.Equal(t, 1, res.SuppressedCount)
	assert.Empty(t, res.Stale)
}

func TestStaleWikiWrongEntries(t *testing.T) {
	all := []discrepancy.Discrepancy{disc("X", discrepancy.FieldExperience)}
	set := suppression.NewSet(
		suppression.Entry{TaskID: "X", Field: discrepancy.FieldMap, Source: suppression.SourceWikiWrong, Reason: "wiki lists old map"},
		suppression.Entry{TaskID: "X", Field: discrepancy.FieldMoney, Source: suppression.SourceCorrection},
	)

	res := suppression.Filter(all, set)

	assert.Len(t, res.Surviving, 1)
	require.Len(t, res.Stale, 1, "corrections are never stale")
	assert.Equal(t, discrepancy.FieldMap, res.Stale[0].Field)
	assert.Equal(t, "wiki lists old map", res.Stale[0].Reason)
}

func TestFilterIsSetSubtraction(t *testing.T) {
	var all []discrepancy.Discrepancy
	for i := 0; i < 10; i++ {
		for _, f := range []discrepancy.Field{discrepancy.FieldMap, discrepancy.FieldMoney, discrepancy.Reputation("Prapor")} {
			all = append(all, disc(fmt.Sprintf("t%d", i), f))
		}
	}
	all = append(all, disc("t1", discrepancy.FieldMap))

	var entries []suppression.Entry
	for i := 0; i < 10; i += 3 {
		entries = append(entries, suppression.Entry{TaskID: fmt.Sprintf("t%d", i), Field: discrepancy.FieldMap, Source: suppression.SourceCorrection})
	}
	entries = append(entries, suppression.Entry{TaskID: "t1", Field: discrepancy.FieldMap, Source: suppression.SourceWikiWrong})
	set := suppression.NewSet(entries...)

	res := suppression.Filter(all, set)

	assert.Equal(t, len(all), len(res.Surviving)+res.SuppressedCount)
	for _, d := range res.Surviving {
		assert.False(t, set.Contains(d.Key()), d.Key().String())
	}
	for _, d := range res.Suppressed {
		assert.True(t, set.Contains(d.Key()), d.Key().String())
	}
	assert.Equal(t, 6, res.SuppressedCount)
}

func TestNilSet(t *testing.T) {
	all := []discrepancy.Discrepancy{disc("X", discrepancy.FieldMap)}
	res := suppression.Filter(all, nil)
	assert.Len(t, res.Surviving, 1)
	assert.Zero(t, res.SuppressedCount)
	assert.Empty(t, res.Stale)
}

func TestNewSetDeduplicates(t *testing.T) {
	e := suppression.Entry{TaskID: "X", Field: discrepancy.FieldMap, Source: suppression.SourceCorrection}
	set := suppression.NewSet(e, e, suppression.Entry{TaskID: "X", Field: discrepancy.FieldMap, Source: suppression.SourceWikiWrong})
	assert.Equal(t, 2, set.Len())
}
