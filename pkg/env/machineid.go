package env

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// MachineID retrieves the ID identifying the machine, hashed with the
// application name so the raw ID is never published. It returns
// "unknown" when the platform provides no ID.
func MachineID(appID string) string {
	id, err := machineid.ProtectedID(appID)
	if err != nil {
		glog.Warningf("machine ID unavailable: %v", err)
		return "unknown"
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}
