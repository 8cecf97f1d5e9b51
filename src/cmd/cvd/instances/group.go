package instances

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// internalGroupNamespace seeds the name-based UUIDs used as internal group names.
var internalGroupNamespace = uuid.MustParse("6c7d8c2e-52a4-4a3e-9d0b-5f1a2e3c4b5d")

// InstanceSpec describes one instance of a group to be created.
type InstanceSpec struct {
	ID   uint
	Name string
}

// GroupSpec describes a group to be created.
type GroupSpec struct {
	Name              string
	HomeDirectory     string
	HostArtifactsPath string
	ProductOutPath    string
	StartTime         TimeStamp
	Instances         []InstanceSpec
}

// Instance is one virtual device. Its identity never changes after the
// owning group has been created.
type Instance struct {
	id    uint
	name  string
	group *InstanceGroup
}

// ID returns the numeric instance id, unique within the group.
func (i *Instance) ID() uint { return i.id }

// Name returns the per-instance name, unique within the group.
func (i *Instance) Name() string { return i.name }

// Group returns the group the instance belongs to.
func (i *Instance) Group() *InstanceGroup { return i.group }

// String returns "group/name".
func (i *Instance) String() string {
	return i.group.name + "/" + i.name
}

// InstanceGroup is a named set of instances sharing a home directory,
// artifact paths and start time. Groups are only built through
// CreateInstanceGroup, so every InstanceGroup holds at least one instance
// and its instance ids and names are pairwise distinct.
type InstanceGroup struct {
	name              string
	internalName      string
	homeDirectory     string
	hostArtifactsPath string
	productOutPath    string
	startTime         TimeStamp
	instances         []*Instance
	// false when the start time was filled in at load because the
	// document had none; such a start time is neither hashed nor persisted
	startTimeRecorded bool
}

// CreateInstanceGroup validates spec and builds the group. No group is
// returned when validation fails.
func CreateInstanceGroup(spec GroupSpec) (*InstanceGroup, error) {
	return newInstanceGroup(spec, true)
}

func newInstanceGroup(spec GroupSpec, startTimeRecorded bool) (*InstanceGroup, error) {
	if len(spec.Instances) == 0 {
		return nil, errors.Wrapf(ErrEmptyGroup, "group %q", spec.Name)
	}
	ids := make(map[uint]struct{}, len(spec.Instances))
	names := make(map[string]struct{}, len(spec.Instances))
	for _, is := range spec.Instances {
		if is.ID > math.MaxUint32 {
			return nil, errors.Wrapf(ErrInstanceIDRange, "group %q: id %d", spec.Name, is.ID)
		}
		if _, ok := ids[is.ID]; ok {
			return nil, errors.Wrapf(ErrDuplicateID, "group %q: id %d", spec.Name, is.ID)
		}
		ids[is.ID] = struct{}{}
		if _, ok := names[is.Name]; ok {
			return nil, errors.Wrapf(ErrDuplicateName, "group %q: name %q", spec.Name, is.Name)
		}
		names[is.Name] = struct{}{}
	}

	keySpec := spec
	if !startTimeRecorded {
		keySpec.StartTime = 0
	}
	g := &InstanceGroup{
		name:              spec.Name,
		internalName:      GenInternalGroupName(keySpec),
		homeDirectory:     spec.HomeDirectory,
		hostArtifactsPath: spec.HostArtifactsPath,
		productOutPath:    spec.ProductOutPath,
		startTime:         spec.StartTime,
		startTimeRecorded: startTimeRecorded,
	}
	g.instances = make([]*Instance, 0, len(spec.Instances))
	for _, is := range spec.Instances {
		g.instances = append(g.instances, &Instance{id: is.ID, name: is.Name, group: g})
	}
	return g, nil
}

// GenInternalGroupName derives the internal group name from everything in
// spec except the user-facing group name, so renaming a group never
// changes its key. The result is a name-based UUID; two groups created
// with the same home, paths, start time and ids get the same name.
func GenInternalGroupName(spec GroupSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "home=%s\x00host=%s\x00product=%s\x00start=%d\x00",
		spec.HomeDirectory, spec.HostArtifactsPath, spec.ProductOutPath, int64(spec.StartTime))
	for _, is := range spec.Instances {
		fmt.Fprintf(&b, "id=%d\x00", is.ID)
	}
	return uuid.NewSHA1(internalGroupNamespace, []byte(b.String())).String()
}

// GroupName returns the user-facing group name.
func (g *InstanceGroup) GroupName() string { return g.name }

// InternalGroupName returns the system-generated key of the group.
func (g *InstanceGroup) InternalGroupName() string { return g.internalName }

// HomeDirectory returns the runtime home directory shared by the instances.
func (g *InstanceGroup) HomeDirectory() string { return g.homeDirectory }

// HostArtifactsPath returns the host tools directory.
func (g *InstanceGroup) HostArtifactsPath() string { return g.hostArtifactsPath }

// ProductOutPath returns the product output directory.
func (g *InstanceGroup) ProductOutPath() string { return g.productOutPath }

// StartTime returns the persisted creation time of the group.
func (g *InstanceGroup) StartTime() TimeStamp { return g.startTime }

// Instances returns the instances in creation order.
func (g *InstanceGroup) Instances() []*Instance {
	return append([]*Instance(nil), g.instances...)
}

// FindByID returns the instance with the given id.
func (g *InstanceGroup) FindByID(id uint) (*Instance, bool) {
	for _, i := range g.instances {
		if i.id == id {
			return i, true
		}
	}
	return nil, false
}

// FindByName returns the instance with the given per-instance name.
func (g *InstanceGroup) FindByName(name string) (*Instance, bool) {
	for _, i := range g.instances {
		if i.name == name {
			return i, true
		}
	}
	return nil, false
}

// Spec returns a GroupSpec that recreates the group.
func (g *InstanceGroup) Spec() GroupSpec {
	spec := GroupSpec{
		Name:              g.name,
		HomeDirectory:     g.homeDirectory,
		HostArtifactsPath: g.hostArtifactsPath,
		ProductOutPath:    g.productOutPath,
		StartTime:         g.startTime,
		Instances:         make([]InstanceSpec, 0, len(g.instances)),
	}
	for _, i := range g.instances {
		spec.Instances = append(spec.Instances, InstanceSpec{ID: i.id, Name: i.name})
	}
	return spec
}
