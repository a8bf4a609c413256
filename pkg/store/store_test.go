package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/geNAZt/zoneheat/pkg/zone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingRecord(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = s.Load("zone.livingroom")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveCreatesAndLoadRoundTrips(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	mode := zone.ModeHeat
	target := 22.5
	err = s.Save("zone.livingroom", zone.Update{
		Mode:              &mode,
		TargetTemperature: &target,
	})
	require.NoError(t, err)

	rec, err := s.Load("zone.livingroom")
	require.NoError(t, err)
	assert.Equal(t, "zone.livingroom", rec.EntityID)
	assert.Equal(t, zone.ModeHeat, rec.Mode)
	assert.Equal(t, 22.5, rec.TargetTemperature)
	// defaults fill in what the update did not carry
	assert.Equal(t, zone.TimeSlotSeconds, rec.DutyOnSeconds+rec.DutyOffSeconds)
}

func TestSaveMergesPartially(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	target := 23.0
	require.NoError(t, s.Save("zone.livingroom", zone.Update{TargetTemperature: &target}))

	on := 700.0
	off := 1100.0
	require.NoError(t, s.Save("zone.livingroom", zone.Update{
		DutyOnSeconds:  &on,
		DutyOffSeconds: &off,
	}))

	rec, err := s.Load("zone.livingroom")
	require.NoError(t, err)
	assert.Equal(t, 23.0, rec.TargetTemperature, "earlier field survives a later partial save")
	assert.Equal(t, 700.0, rec.DutyOnSeconds)
	assert.Equal(t, 1100.0, rec.DutyOffSeconds)
}

func TestSaveEnergyHistory(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	err = s.Save("zone.livingroom", zone.Update{
		EnergyHistory: []zone.EnergySample{
			{Time: 1700000000, EnergyWh: 383.9, TemperatureDiff: 2.0},
		},
	})
	require.NoError(t, err)

	rec, err := s.Load("zone.livingroom")
	require.NoError(t, err)
	require.Len(t, rec.EnergyHistory, 1)
	assert.Equal(t, 383.9, rec.EnergyHistory[0].EnergyWh)
}

func TestLoadClampsTarget(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	body := `{"entityId":"zone.livingroom","mode":"idle","targetTemperature":42,"dutyOnSeconds":600,"dutyOffSeconds":1200}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "zone.livingroom.json"), []byte(body), 0644))

	rec, err := s.Load("zone.livingroom")
	require.NoError(t, err)
	assert.Equal(t, zone.TargetTemperatureMax, rec.TargetTemperature)
}

func TestLoadRepairsSlotSplit(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	body := `{"entityId":"zone.livingroom","mode":"idle","targetTemperature":21,"dutyOnSeconds":500,"dutyOffSeconds":500}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "zone.livingroom.json"), []byte(body), 0644))

	rec, err := s.Load("zone.livingroom")
	require.NoError(t, err)
	assert.Equal(t, 500.0, rec.DutyOnSeconds)
	assert.Equal(t, 1300.0, rec.DutyOffSeconds)
}
