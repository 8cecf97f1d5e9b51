package selector

import (
	"fmt"

	"github.com/linuxkit/cvd/src/cmd/cvd/instances"
	"github.com/linuxkit/cvd/src/cmd/cvd/util"
	"github.com/pkg/errors"
)

// ErrNoDefaultGroup is returned when no group can be picked without an
// explicit selector.
var ErrNoDefaultGroup = errors.New("no default instance group")

// NoDefaultGroupError explains why default resolution failed. It matches
// ErrNoDefaultGroup and unwraps to the lookup failure.
type NoDefaultGroupError struct {
	Groups int
	Home   string
	Err    error
}

func (e *NoDefaultGroupError) Error() string {
	return fmt.Sprintf("%v among %d groups for home %q: %v; use --%s to pick one",
		ErrNoDefaultGroup, e.Groups, e.Home, e.Err, GroupNameFlag)
}

func (e *NoDefaultGroupError) Unwrap() error { return e.Err }

// Is reports ErrNoDefaultGroup as a match.
func (e *NoDefaultGroupError) Is(target error) bool { return target == ErrNoDefaultGroup }

// GetDefaultGroup picks the group a command acts on when no selector was
// given: the only group if there is exactly one, otherwise the single group
// whose home is the invoking user's system-wide home directory.
func GetDefaultGroup(db *instances.InstanceDatabase) (*instances.InstanceGroup, error) {
	groups, err := db.InstanceGroups()
	if err != nil {
		return nil, err
	}
	if len(groups) == 1 {
		return groups[0], nil
	}
	home, err := systemWideUserHome()
	if err != nil {
		return nil, errors.Wrap(err, "resolving default instance group")
	}
	g, err := db.FindGroup(instances.Filter{Home: home})
	if err != nil {
		if errors.Is(err, instances.ErrStore) {
			return nil, err
		}
		return nil, &NoDefaultGroupError{Groups: len(groups), Home: home, Err: err}
	}
	return g, nil
}

// SelectGroup resolves the single group named by opts and envs, falling back
// to GetDefaultGroup when they impose no constraint.
func SelectGroup(db *instances.InstanceDatabase, opts SelectorOptions, envs util.Envs) (*instances.InstanceGroup, error) {
	filter, err := BuildFilterFromSelectors(opts, envs)
	if err != nil {
		return nil, err
	}
	if filter.IsEmpty() {
		return GetDefaultGroup(db)
	}
	return db.FindGroup(filter)
}

// SelectInstances resolves a group like SelectGroup and returns it with the
// instances named in opts, or all of its instances when none are named.
func SelectInstances(db *instances.InstanceDatabase, opts SelectorOptions, envs util.Envs) (*instances.InstanceGroup, []*instances.Instance, error) {
	g, err := SelectGroup(db, opts, envs)
	if err != nil {
		return nil, nil, err
	}
	if len(opts.InstanceNames) == 0 {
		return g, g.Instances(), nil
	}
	selected := make([]*instances.Instance, 0, len(opts.InstanceNames))
	for _, name := range opts.InstanceNames {
		i, ok := g.FindByName(name)
		if !ok {
			return nil, nil, errors.Wrapf(instances.ErrNotFound, "instance %q in group %q", name, g.GroupName())
		}
		selected = append(selected, i)
	}
	return g, selected, nil
}
