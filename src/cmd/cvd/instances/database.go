package instances

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const defaultGroupName = "cvd"

// Filter selects groups. Empty fields impose no constraint, so a filter
// cannot ask for a group whose home directory is empty; such groups are
// found by name or by an empty filter.
type Filter struct {
	// Home must equal the group's home directory.
	Home string
	// GroupName must equal the group's user-facing name.
	GroupName string
	// InstanceNames must all name instances of the group.
	InstanceNames map[string]struct{}
}

// AddInstanceName adds name to the filter's instance name set.
func (f *Filter) AddInstanceName(name string) {
	if f.InstanceNames == nil {
		f.InstanceNames = make(map[string]struct{})
	}
	f.InstanceNames[name] = struct{}{}
}

// IsEmpty reports whether the filter matches every group.
func (f Filter) IsEmpty() bool {
	return f.Home == "" && f.GroupName == "" && len(f.InstanceNames) == 0
}

// Matches reports whether g satisfies every set field of the filter.
func (f Filter) Matches(g *InstanceGroup) bool {
	if f.Home != "" && f.Home != g.homeDirectory {
		return false
	}
	if f.GroupName != "" && f.GroupName != g.name {
		return false
	}
	for name := range f.InstanceNames {
		if _, ok := g.FindByName(name); !ok {
			return false
		}
	}
	return true
}

// Storage holds the authoritative set of groups.
type Storage interface {
	// Load returns every persisted group. A store that does not exist yet
	// holds no groups.
	Load() ([]*InstanceGroup, error)
	// Update runs fn on the current groups and persists its result,
	// excluding concurrent updates of the same store. Nothing is written
	// when fn fails.
	Update(fn func(groups []*InstanceGroup) ([]*InstanceGroup, error)) error
}

// InstanceDatabase answers queries over, and applies mutations to, the
// groups held by a Storage. It never consults the environment.
type InstanceDatabase struct {
	storage Storage
}

// NewInstanceDatabase returns a database over storage.
func NewInstanceDatabase(storage Storage) *InstanceDatabase {
	return &InstanceDatabase{storage: storage}
}

// InstanceGroups returns all groups. It fails only if the store cannot be read.
func (db *InstanceDatabase) InstanceGroups() ([]*InstanceGroup, error) {
	return db.storage.Load()
}

// FindGroups returns every group matching filter, in store order.
func (db *InstanceDatabase) FindGroups(filter Filter) ([]*InstanceGroup, error) {
	groups, err := db.storage.Load()
	if err != nil {
		return nil, err
	}
	var matches []*InstanceGroup
	for _, g := range groups {
		if filter.Matches(g) {
			matches = append(matches, g)
		}
	}
	return matches, nil
}

// FindGroup returns the single group matching filter. It fails with
// ErrNotFound when nothing matches and ErrAmbiguous when several do.
func (db *InstanceDatabase) FindGroup(filter Filter) (*InstanceGroup, error) {
	matches, err := db.FindGroups(filter)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, errors.Wrap(ErrNotFound, describeFilter(filter))
	case 1:
		return matches[0], nil
	default:
		return nil, errors.Wrapf(ErrAmbiguous, "%d groups match %s", len(matches), describeFilter(filter))
	}
}

// FindInstances resolves the single group matching filter and returns its
// instances named in filter.InstanceNames, or all of them if none are named.
func (db *InstanceDatabase) FindInstances(filter Filter) ([]*Instance, error) {
	g, err := db.FindGroup(filter)
	if err != nil {
		return nil, err
	}
	if len(filter.InstanceNames) == 0 {
		return g.Instances(), nil
	}
	var selected []*Instance
	for _, i := range g.instances {
		if _, ok := filter.InstanceNames[i.name]; ok {
			selected = append(selected, i)
		}
	}
	return selected, nil
}

// AddInstanceGroup creates a group from spec and persists it. Within the
// store transaction it fills in what spec leaves open: an empty group name
// becomes the first free of "cvd", "cvd_2", ...; instances with id 0 get the
// lowest ids not used by any group; empty instance names become the id in
// decimal; a zero start time becomes now.
func (db *InstanceDatabase) AddInstanceGroup(spec GroupSpec) (*InstanceGroup, error) {
	var created *InstanceGroup
	err := db.storage.Update(func(groups []*InstanceGroup) ([]*InstanceGroup, error) {
		spec := cloneSpec(spec)
		usedNames := make(map[string]struct{}, len(groups))
		usedIDs := make(map[uint]string)
		for _, g := range groups {
			usedNames[g.name] = struct{}{}
			for _, i := range g.instances {
				usedIDs[i.id] = g.name
			}
		}

		if spec.Name == "" {
			spec.Name = freeGroupName(usedNames)
		} else if _, ok := usedNames[spec.Name]; ok {
			return nil, errors.Wrapf(ErrGroupExists, "group %q", spec.Name)
		}

		for _, is := range spec.Instances {
			if is.ID == 0 {
				continue
			}
			if owner, ok := usedIDs[is.ID]; ok {
				return nil, errors.Wrapf(ErrInstanceIDInUse, "id %d belongs to group %q", is.ID, owner)
			}
			usedIDs[is.ID] = spec.Name
		}
		next := uint(1)
		for n := range spec.Instances {
			is := &spec.Instances[n]
			if is.ID == 0 {
				for ; ; next++ {
					if _, ok := usedIDs[next]; !ok {
						break
					}
				}
				is.ID = next
				usedIDs[next] = spec.Name
			}
			if is.Name == "" {
				is.Name = strconv.FormatUint(uint64(is.ID), 10)
			}
		}
		if spec.StartTime.IsZero() {
			spec.StartTime = Now()
		}

		g, err := CreateInstanceGroup(spec)
		if err != nil {
			return nil, err
		}
		created = g
		return append(groups, g), nil
	})
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"group":     created.name,
		"internal":  created.internalName,
		"instances": len(created.instances),
	}).Debug("added instance group to the store")
	return created, nil
}

// RemoveInstanceGroup deletes the group with the given internal name and
// reports whether it existed.
func (db *InstanceDatabase) RemoveInstanceGroup(internalName string) (bool, error) {
	removed := false
	err := db.storage.Update(func(groups []*InstanceGroup) ([]*InstanceGroup, error) {
		kept := groups[:0:0]
		for _, g := range groups {
			if g.internalName == internalName {
				removed = true
				continue
			}
			kept = append(kept, g)
		}
		return kept, nil
	})
	if err != nil {
		return false, err
	}
	log.WithFields(log.Fields{"internal": internalName, "removed": removed}).Debug("removed instance group from the store")
	return removed, nil
}

// Clear deletes every group and returns how many were removed.
func (db *InstanceDatabase) Clear() (int, error) {
	removed := 0
	err := db.storage.Update(func(groups []*InstanceGroup) ([]*InstanceGroup, error) {
		removed = len(groups)
		return nil, nil
	})
	if err != nil {
		return 0, err
	}
	log.WithField("removed", removed).Debug("cleared the store")
	return removed, nil
}

func freeGroupName(used map[string]struct{}) string {
	if _, ok := used[defaultGroupName]; !ok {
		return defaultGroupName
	}
	for n := 2; ; n++ {
		name := defaultGroupName + "_" + strconv.Itoa(n)
		if _, ok := used[name]; !ok {
			return name
		}
	}
}

func cloneSpec(spec GroupSpec) GroupSpec {
	spec.Instances = append([]InstanceSpec(nil), spec.Instances...)
	return spec
}

func describeFilter(f Filter) string {
	var parts []string
	if f.Home != "" {
		parts = append(parts, "home="+strconv.Quote(f.Home))
	}
	if f.GroupName != "" {
		parts = append(parts, "group_name="+strconv.Quote(f.GroupName))
	}
	if len(f.InstanceNames) > 0 {
		names := make([]string, 0, len(f.InstanceNames))
		for name := range f.InstanceNames {
			names = append(names, name)
		}
		sort.Strings(names)
		parts = append(parts, "instance_names="+strconv.Quote(strings.Join(names, ",")))
	}
	return "filter{" + strings.Join(parts, " ") + "}"
}
