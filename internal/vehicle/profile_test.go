package vehicle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileStoreAdd(t *testing.T) {
	store := NewProfileStore()
	require.NoError(t, store.Add(NewProfile("car")))
	assert.Error(t, store.Add(NewProfile("car")))
	assert.NotNil(t, store.Get("car"))
	assert.Nil(t, store.Get("unknown"))
}

func TestSingularize(t *testing.T) {
	store := NewProfileStore()
	base := NewProfile("car")
	require.NoError(t, store.Add(base))

	clone := store.Singularize(base, "v1")
	assert.Equal(t, "car@v1", clone.ID())
	assert.Equal(t, "car", clone.OriginalID())
	assert.True(t, clone.IsSingular())
	assert.Equal(t, "v1", clone.SingularFor())

	// mutations on the clone never touch the shared bundle
	clone.MinGap = 99
	assert.Equal(t, 2.5, base.MinGap)

	// repeated singularization of the same pair is stable
	again := store.Singularize(base, "v1")
	assert.Same(t, clone, again)

	// singularizing a clone keys off the base profile
	nested := store.Singularize(clone, "v1")
	assert.Same(t, clone, nested)
}

func TestSingularizeCopiesLCParams(t *testing.T) {
	store := NewProfileStore()
	base := NewProfile("car")
	base.LCParams[LCParamStrategic] = "2"
	require.NoError(t, store.Add(base))

	clone := store.Singularize(base, "v1")
	clone.LCParams[LCParamStrategic] = "0"
	assert.Equal(t, "2", base.LCParam(LCParamStrategic, "1"))
	assert.Equal(t, "0", clone.LCParam(LCParamStrategic, "1"))
	assert.Equal(t, "5", clone.LCParam(LCParamSpeedGainLookahead, "5"))
}
