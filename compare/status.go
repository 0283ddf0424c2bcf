package compare

import (
	"sync"
	"time"
)

// InputStatus counts one input's traffic.
type InputStatus struct {
	URL     string `json:"url"`
	Packets uint64 `json:"packets"`
	Pcrs    uint64 `json:"pcrs"`
	Drops   uint64 `json:"drops"`
}

// Status is the snapshot published to the stats store and served by the
// HTTP status interface.
type Status struct {
	SessionId   string        `json:"session_id"`
	CreatedAt   time.Time     `json:"created_at"`
	Inputs      []InputStatus `json:"inputs"`
	Records     uint64        `json:"records"`
	Resets      uint64        `json:"resets"`
	LastDeltaMs float64       `json:"last_delta_ms"`
	LastSync    bool          `json:"last_sync"`
}

type status struct {
	lock        sync.Mutex
	createdAt   time.Time
	inputs      [inputCount]InputStatus
	records     uint64
	resets      uint64
	lastDeltaMs float64
	lastSync    bool
}

func newStatus() *status {
	return &status{
		createdAt: time.Now(),
	}
}

func (t *status) setInputURL(index int, url string) {
	t.lock.Lock()
	t.inputs[index].URL = url
	t.lock.Unlock()
}

func (t *status) addPackets(index, n int) {
	t.lock.Lock()
	t.inputs[index].Packets += uint64(n)
	t.lock.Unlock()
}

func (t *status) addPcr(index int) {
	t.lock.Lock()
	t.inputs[index].Pcrs++
	t.lock.Unlock()
}

func (t *status) addDrops(index, n int) {
	t.lock.Lock()
	t.inputs[index].Drops += uint64(n)
	t.lock.Unlock()
}

func (t *status) record(deltaMs float64, inSync bool) {
	t.lock.Lock()
	t.records++
	t.lastDeltaMs = deltaMs
	t.lastSync = inSync
	t.lock.Unlock()
}

func (t *status) reset() {
	t.lock.Lock()
	t.resets++
	t.lock.Unlock()
}

func (t *status) snapshot(sessionId string) Status {
	t.lock.Lock()
	defer t.lock.Unlock()
	return Status{
		SessionId:   sessionId,
		CreatedAt:   t.createdAt,
		Inputs:      []InputStatus{t.inputs[0], t.inputs[1]},
		Records:     t.records,
		Resets:      t.resets,
		LastDeltaMs: t.lastDeltaMs,
		LastSync:    t.lastSync,
	}
}
