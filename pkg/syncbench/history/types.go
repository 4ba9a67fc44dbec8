// Package history keeps a ledger of syncbench runs in a Badger store.
package history

import (
	"encoding/json"
	"time"
)

// Kind names the command that produced a run.
type Kind string

const (
	KindGenerate Kind = "gen"
	KindGrow     Kind = "grow"
	KindBackup   Kind = "backup"
	KindBench    Kind = "bench"
	KindStrategy Kind = "strategy"
	KindMonitor  Kind = "monitor"
	KindTraffic  Kind = "traffic"
)

// Host describes the machine a run executed on.
type Host struct {
	CPUs     int    `json:"cpus"`
	TotalRAM uint64 `json:"total_ram"`
}

// Run is one recorded syncbench invocation.
type Run struct {
	ID        string            `json:"id"`
	Kind      Kind              `json:"kind"`
	Started   time.Time         `json:"started"`
	Elapsed   time.Duration     `json:"elapsed"`
	Params    map[string]string `json:"params,omitempty"`
	Artifacts []string          `json:"artifacts,omitempty"`
	ExitCodes []int             `json:"exit_codes,omitempty"`
	Host      Host              `json:"host"`
	Error     string            `json:"error,omitempty"`
}

// Failures counts transfers that exited non-zero.
func (r *Run) Failures() int {
	n := 0
	for _, c := range r.ExitCodes {
		if c != 0 {
			n++
		}
	}
	return n
}

// Encode serializes the run.
func (r *Run) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// Decode deserializes a run.
func (r *Run) Decode(data []byte) error {
	return json.Unmarshal(data, r)
}
