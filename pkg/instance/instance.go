package instance

import "os"

// GetID returns the process instance identifier used in logs and lock
// ownership. LAUNDRY_INSTANCE_ID wins over the platform-provided DYNO.
func GetID() string {
	for _, key := range []string{"LAUNDRY_INSTANCE_ID", "DYNO"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
