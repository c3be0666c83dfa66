package output

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTripWriterNesting(t *testing.T) {
	var sb strings.Builder
	w := NewTripWriter(&sb)

	w.OpenTag("tripinfos", Attr{Key: "version", Value: "1"})
	w.OpenTag("tripinfo", Attr{Key: "id", Value: "v1"}, FloatAttr("duration", 12.5))
	w.EmptyTag("bluelight")
	w.CloseTag()
	require.NoError(t, w.Close())

	expected := `<tripinfos version="1">
    <tripinfo id="v1" duration="12.50">
        <bluelight/>
    </tripinfo>
</tripinfos>
`
	assert.Equal(t, expected, sb.String())
}

func TestTripWriterCloseDrainsStack(t *testing.T) {
	var sb strings.Builder
	w := NewTripWriter(&sb)
	w.OpenTag("a")
	w.OpenTag("b")
	require.NoError(t, w.Close())

	assert.True(t, strings.HasSuffix(sb.String(), "</a>\n"))
	assert.Contains(t, sb.String(), "</b>")

	// closing with nothing open is harmless
	w.CloseTag()
	require.NoError(t, w.Close())
}

func TestSortedAttrs(t *testing.T) {
	attrs := SortedAttrs(map[string]string{"b": "2", "a": "1", "c": "3"})
	var keys []string
	for _, a := range attrs {
		keys = append(keys, a.Key)
	}
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestRunStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := OpenRunStore(path)
	require.NoError(t, err)
	defer store.Close()

	rec := RunRecord{
		ID:              "run-1",
		Scenario:        "crossing",
		Seed:            42,
		Steps:           300,
		StepLengthMS:    1000,
		VehiclesTotal:   5,
		InfluencedPeak:  3,
		InfluencedTotal: 4,
		ManualCrossings: 1,
		FoeSlowdowns:    2,
		FinishedAt:      time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Save(rec))

	got, found, err := store.Get("run-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, rec, got)

	_, found, err = store.Get("missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRunStoreList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := OpenRunStore(path)
	require.NoError(t, err)
	defer store.Close()

	recs, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, recs)

	require.NoError(t, store.Save(RunRecord{ID: "b", Scenario: "s"}))
	require.NoError(t, store.Save(RunRecord{ID: "a", Scenario: "s"}))

	recs, err = store.List()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].ID, "records come back in key order")
	assert.Equal(t, "b", recs[1].ID)
}
