package instance

import "github.com/angelmondragon/healthpulse-backend/pkg/env"

// GetID returns the process instance identifier used in startup logs.
// Platform dyno names win over the container hostname.
func GetID() string {
	if id := env.Get("DYNO", ""); id != "" {
		return id
	}
	return env.Get("HOSTNAME", "local")
}
