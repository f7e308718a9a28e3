package service

import (
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/adpulse/reports-api/internal/models"
)

// JobStatus describes one armed registry entry.
type JobStatus struct {
	ConfigID string         `json:"configId"`
	Cadence  models.Cadence `json:"cadence"`
	Running  bool           `json:"isRunning"`
}

type registryEntry struct {
	entryID cron.EntryID
	cadence models.Cadence
}

// JobRegistry owns the process-wide map of configID to live recurring
// trigger. All map mutation happens under the mutex; the registered callbacks
// themselves run on the cron runner outside of it. Entries exist only while a
// trigger is live, so presence implies liveness.
type JobRegistry struct {
	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]registryEntry
	logger  *zap.Logger
}

// NewJobRegistry constructs the registry and starts its UTC cron runner.
func NewJobRegistry(logger *zap.Logger) *JobRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := cron.New(cron.WithLocation(time.UTC), cron.WithParser(cronParser))
	c.Start()
	return &JobRegistry{
		cron:    c,
		entries: map[string]registryEntry{},
		logger:  logger,
	}
}

// Schedule installs a recurring callback for the config. An existing entry for
// the same configID is stopped and replaced first, so rescheduling is
// idempotent and two live triggers can never coexist for one config.
func (r *JobRegistry) Schedule(configID string, cadence models.Cadence, spec string, fn func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[configID]; ok {
		r.cron.Remove(existing.entryID)
		delete(r.entries, configID)
	}

	entryID, err := r.cron.AddFunc(spec, fn)
	if err != nil {
		return err
	}
	r.entries[configID] = registryEntry{entryID: entryID, cadence: cadence}
	r.logger.Sugar().Infow("job scheduled", "config_id", configID, "cadence", cadence)
	return nil
}

// Stop cancels and removes the entry for the config. Stopping an unknown
// config is a no-op, not an error. An in-flight run is not interrupted; it
// simply is not re-armed.
func (r *JobRegistry) Stop(configID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[configID]
	if !ok {
		return
	}
	r.cron.Remove(entry.entryID)
	delete(r.entries, configID)
	r.logger.Sugar().Infow("job stopped", "config_id", configID)
}

// Status returns the currently armed configs, ordered by configID.
func (r *JobRegistry) Status() []JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	statuses := make([]JobStatus, 0, len(r.entries))
	for configID, entry := range r.entries {
		statuses = append(statuses, JobStatus{
			ConfigID: configID,
			Cadence:  entry.cadence,
			Running:  true,
		})
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].ConfigID < statuses[j].ConfigID })
	return statuses
}

// Len reports how many entries are armed.
func (r *JobRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Shutdown stops the cron runner and clears the map. Fired callbacks already
// in flight are allowed to finish.
func (r *JobRegistry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cron.Stop()
	r.entries = map[string]registryEntry{}
}
