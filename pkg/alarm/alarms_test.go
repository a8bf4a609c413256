package alarm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddAndClear(t *testing.T) {
	a := New()

	assert.True(t, a.Add("zone.livingroom", "security-shutdown"))
	assert.False(t, a.Add("zone.livingroom", "security-shutdown"), "duplicate is not added twice")
	assert.True(t, a.Add("zone.livingroom", "sensor-lost"))

	active := a.Active()
	assert.Equal(t, []string{"security-shutdown", "sensor-lost"}, active["zone.livingroom"])

	assert.True(t, a.Clear("zone.livingroom"))
	assert.False(t, a.Clear("zone.livingroom"), "nothing left to clear")
	assert.Empty(t, a.Active())
}

func TestActiveReturnsCopy(t *testing.T) {
	a := New()
	a.Add("zone.livingroom", "security-shutdown")

	active := a.Active()
	active["zone.livingroom"][0] = "mutated"
	delete(active, "zone.livingroom")

	assert.Equal(t, []string{"security-shutdown"}, a.Active()["zone.livingroom"])
}
