package instance

import "github.com/angelmondragon/qkart/pkg/env"

// GetID returns the process instance identifier used to tag logs.
func GetID() string {
	if id, ok := env.Lookup("QKART_INSTANCE_ID", "DYNO", "HOSTNAME"); ok {
		return id
	}
	return "local"
}
