package util

import (
	"sync"

	"github.com/denisbrodbeck/machineid"
)

var (
	machineIDOnce sync.Once
	machineIDVal  string
)

// GetMachineID returns a stable per-host identifier used to salt signed
// tokens. Falls back to a fixed string when the platform id is unavailable
// so token parsing stays consistent within one host.
func GetMachineID() string {
	machineIDOnce.Do(func() {
		id, err := machineid.ProtectedID("penflow-sync-service")
		if err != nil {
			machineIDVal = "penflow-static-machine"
			return
		}
		machineIDVal = id
	})
	return machineIDVal
}
