package selector

import (
	"github.com/caarlos0/env/v11"
	"github.com/linuxkit/cvd/src/cmd/cvd/instances"
	"github.com/linuxkit/cvd/src/cmd/cvd/util"
	"github.com/pkg/errors"
)

// LegacyInstanceEnv names the variable older tooling used to pick an
// instance by id.
const LegacyInstanceEnv = "CUTTLEFISH_INSTANCE"

// ErrInvalidEnv is returned when a selector-related environment variable is
// present but malformed.
var ErrInvalidEnv = errors.New("invalid selector environment")

var systemWideUserHome = util.SystemWideUserHome

type homeEnv struct {
	Home string `env:"HOME"`
}

type legacyInstanceEnv struct {
	ID uint `env:"CUTTLEFISH_INSTANCE,notEmpty"`
}

func parseEnvs(v interface{}, envs util.Envs) error {
	if envs == nil {
		envs = util.Envs{}
	}
	return env.ParseWithOptions(v, env.Options{Environment: envs})
}

// OverridenHomeDirectory returns HOME from envs when it differs from the
// invoking user's system-wide home directory. The second result is false
// when HOME is unset, empty, equal to the system home, or the system home
// cannot be determined.
func OverridenHomeDirectory(envs util.Envs) (string, bool) {
	var e homeEnv
	if err := parseEnvs(&e, envs); err != nil || e.Home == "" {
		return "", false
	}
	home, err := systemWideUserHome()
	if err != nil || home == e.Home {
		return "", false
	}
	return e.Home, true
}

// LegacyInstanceID returns the instance id from CUTTLEFISH_INSTANCE. The
// second result is false when the variable is absent. A present variable
// that is not an unsigned integer is an ErrInvalidEnv error.
func LegacyInstanceID(envs util.Envs) (uint, bool, error) {
	if _, ok := envs[LegacyInstanceEnv]; !ok {
		return 0, false, nil
	}
	var e legacyInstanceEnv
	if err := parseEnvs(&e, envs); err != nil {
		return 0, false, errors.Wrap(ErrInvalidEnv, err.Error())
	}
	return e.ID, true, nil
}

// BuildFilterFromSelectors turns parsed selector flags and the caller's
// environment into a database filter. The home constraint is set only when
// HOME is overridden. CUTTLEFISH_INSTANCE is validated but does not narrow
// the filter.
func BuildFilterFromSelectors(opts SelectorOptions, envs util.Envs) (instances.Filter, error) {
	var filter instances.Filter
	if home, ok := OverridenHomeDirectory(envs); ok {
		filter.Home = home
	}
	filter.GroupName = opts.GroupName
	for _, name := range opts.InstanceNames {
		filter.AddInstanceName(name)
	}
	if _, _, err := LegacyInstanceID(envs); err != nil {
		return instances.Filter{}, err
	}
	return filter, nil
}

// HomeDirectory returns the home a new group should live in: the overridden
// HOME from envs if any, otherwise the system-wide user home.
func HomeDirectory(envs util.Envs) (string, error) {
	if home, ok := OverridenHomeDirectory(envs); ok {
		return home, nil
	}
	return systemWideUserHome()
}
