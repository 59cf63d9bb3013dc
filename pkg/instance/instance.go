package instance

import "github.com/primefit/storefront/pkg/env"

// GetID returns an identifier for the running process. Cloud Run revisions
// and container hostnames are used when no explicit id is set.
func GetID() string {
	return env.First("local", "PRIMEFIT_INSTANCE_ID", "K_REVISION", "HOSTNAME")
}
