package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adpulse/reports-api/internal/models"
)

func TestJobRegistryRescheduleReplacesEntry(t *testing.T) {
	registry := NewJobRegistry(nil)
	defer registry.Shutdown()

	require.NoError(t, registry.Schedule("cfg-1", models.CadenceHourly, specHourly, func() {}))
	require.NoError(t, registry.Schedule("cfg-1", models.CadenceDaily, specDaily, func() {}))

	assert.Equal(t, 1, registry.Len())
	status := registry.Status()
	require.Len(t, status, 1)
	assert.Equal(t, models.CadenceDaily, status[0].Cadence)
}

func TestJobRegistryStopUnknownIsNoop(t *testing.T) {
	registry := NewJobRegistry(nil)
	defer registry.Shutdown()

	registry.Stop("never-scheduled")
	assert.Equal(t, 0, registry.Len())
}

func TestJobRegistryStopRemovesOnlyTarget(t *testing.T) {
	registry := NewJobRegistry(nil)
	defer registry.Shutdown()

	require.NoError(t, registry.Schedule("cfg-a", models.CadenceHourly, specHourly, func() {}))
	require.NoError(t, registry.Schedule("cfg-b", models.CadenceDaily, specDaily, func() {}))

	registry.Stop("cfg-a")

	status := registry.Status()
	require.Len(t, status, 1)
	assert.Equal(t, "cfg-b", status[0].ConfigID)
	assert.True(t, status[0].Running)
}

func TestJobRegistryScheduleRejectsBadSpec(t *testing.T) {
	registry := NewJobRegistry(nil)
	defer registry.Shutdown()

	err := registry.Schedule("cfg-1", models.CadenceDaily, "not a cron spec", func() {})
	require.Error(t, err)
	assert.Equal(t, 0, registry.Len())
}

func TestJobRegistryStatusSortedByConfigID(t *testing.T) {
	registry := NewJobRegistry(nil)
	defer registry.Shutdown()

	require.NoError(t, registry.Schedule("cfg-z", models.CadenceHourly, specHourly, func() {}))
	require.NoError(t, registry.Schedule("cfg-a", models.CadenceHourly, specHourly, func() {}))

	status := registry.Status()
	require.Len(t, status, 2)
	assert.Equal(t, "cfg-a", status[0].ConfigID)
	assert.Equal(t, "cfg-z", status[1].ConfigID)
}
