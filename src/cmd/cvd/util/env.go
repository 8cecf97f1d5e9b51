package util

import (
	"os"
	"strings"
)

// Envs is a snapshot of environment variables keyed by name.
type Envs map[string]string

// EnvsFromEnviron converts KEY=VALUE pairs, as returned by os.Environ, into
// an Envs map. Entries without '=' are ignored; later duplicates win.
func EnvsFromEnviron(environ []string) Envs {
	envs := make(Envs, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		envs[k] = v
	}
	return envs
}

// CurrentEnvs returns the environment of the running process.
func CurrentEnvs() Envs {
	return EnvsFromEnviron(os.Environ())
}
