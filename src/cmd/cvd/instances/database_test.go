package instances

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoGroupDatabase(t *testing.T) *InstanceDatabase {
	t.Helper()
	return NewInstanceDatabase(NewMemoryStorage(
		mustGroup(t, testSpec("cf", "/home/a", InstanceSpec{1, "09"}, InstanceSpec{2, "phone-1"})),
		mustGroup(t, testSpec("cf2", "/home/b", InstanceSpec{3, "09"}, InstanceSpec{4, "tv"})),
	))
}

func names(groups []*InstanceGroup) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g.GroupName())
	}
	return out
}

func filterWith(home, group string, instanceNames ...string) Filter {
	f := Filter{Home: home, GroupName: group}
	for _, name := range instanceNames {
		f.AddInstanceName(name)
	}
	return f
}

func TestInstanceGroupsEmptyDatabase(t *testing.T) {
	db := NewInstanceDatabase(NewMemoryStorage())
	groups, err := db.InstanceGroups()
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestFindGroups(t *testing.T) {
	db := twoGroupDatabase(t)
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"empty filter", Filter{}, []string{"cf", "cf2"}},
		{"home", filterWith("/home/a", ""), []string{"cf"}},
		{"unknown home", filterWith("/home/c", ""), nil},
		{"group name", filterWith("", "cf2"), []string{"cf2"}},
		{"group name is exact", filterWith("", "c"), nil},
		{"home and group disagree", filterWith("/home/a", "cf2"), nil},
		{"shared instance name", filterWith("", "", "09"), []string{"cf", "cf2"}},
		{"instance name", filterWith("", "", "tv"), []string{"cf2"}},
		{"all instance names required", filterWith("", "", "09", "tv"), []string{"cf2"}},
		{"instance names across groups", filterWith("", "", "phone-1", "tv"), nil},
		{"group and instance", filterWith("", "cf", "09"), []string{"cf"}},
		{"instance names are exact", filterWith("", "", "phone"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups, err := db.FindGroups(tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(groups))
		})
	}
}

func TestFindGroup(t *testing.T) {
	db := twoGroupDatabase(t)

	g, err := db.FindGroup(filterWith("", "cf", "09"))
	require.NoError(t, err)
	assert.Equal(t, "cf", g.GroupName())

	_, err = db.FindGroup(filterWith("/home/c", ""))
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
	assert.Contains(t, err.Error(), `home="/home/c"`)

	_, err = db.FindGroup(filterWith("", "", "09"))
	assert.True(t, errors.Is(err, ErrAmbiguous), "got %v", err)
	assert.Contains(t, err.Error(), "2 groups match")
	assert.False(t, errors.Is(err, ErrStore))
}

func TestFindInstances(t *testing.T) {
	db := twoGroupDatabase(t)

	selected, err := db.FindInstances(filterWith("", "cf", "09"))
	require.NoError(t, err)
	require.Len(t, selected, 1)
	assert.Equal(t, "09", selected[0].Name())
	assert.Equal(t, uint(1), selected[0].ID())
	assert.Equal(t, "cf", selected[0].Group().GroupName())

	all, err := db.FindInstances(filterWith("", "cf2"))
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

type failingStorage struct{ err error }

func (f failingStorage) Load() ([]*InstanceGroup, error) { return nil, f.err }

func (f failingStorage) Update(func([]*InstanceGroup) ([]*InstanceGroup, error)) error {
	return f.err
}

func TestStoreErrorsAreNotNotFound(t *testing.T) {
	storeErr := &StoreError{Op: "read", Path: "/tmp/db.json", Err: errors.New("permission denied")}
	db := NewInstanceDatabase(failingStorage{err: storeErr})

	_, err := db.InstanceGroups()
	assert.True(t, errors.Is(err, ErrStore))

	_, err = db.FindGroup(Filter{})
	assert.True(t, errors.Is(err, ErrStore))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "/tmp/db.json")
}

func TestAddInstanceGroupDefaults(t *testing.T) {
	db := NewInstanceDatabase(NewMemoryStorage())

	first, err := db.AddInstanceGroup(GroupSpec{
		HomeDirectory: "/home/a",
		Instances:     make([]InstanceSpec, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, "cvd", first.GroupName())
	assert.False(t, first.StartTime().IsZero())
	assert.Equal(t, []InstanceSpec{{1, "1"}, {2, "2"}}, first.Spec().Instances)

	second, err := db.AddInstanceGroup(GroupSpec{
		HomeDirectory: "/home/b",
		Instances:     []InstanceSpec{{ID: 0, Name: "tv"}, {ID: 0}},
	})
	require.NoError(t, err)
	assert.Equal(t, "cvd_2", second.GroupName())
	assert.Equal(t, []InstanceSpec{{3, "tv"}, {4, "4"}}, second.Spec().Instances)

	groups, err := db.InstanceGroups()
	require.NoError(t, err)
	assert.Equal(t, []string{"cvd", "cvd_2"}, names(groups))
}

func TestAddInstanceGroupFillsIDGaps(t *testing.T) {
	db := NewInstanceDatabase(NewMemoryStorage(
		mustGroup(t, testSpec("a", "/home/a", InstanceSpec{1, "1"}, InstanceSpec{3, "3"})),
	))
	g, err := db.AddInstanceGroup(GroupSpec{
		Name:      "b",
		Instances: []InstanceSpec{{}, {ID: 5}, {}},
	})
	require.NoError(t, err)
	assert.Equal(t, []InstanceSpec{{2, "2"}, {5, "5"}, {4, "4"}}, g.Spec().Instances)
}

func TestAddInstanceGroupConflicts(t *testing.T) {
	db := twoGroupDatabase(t)

	_, err := db.AddInstanceGroup(GroupSpec{Name: "cf", Instances: []InstanceSpec{{}}})
	assert.True(t, errors.Is(err, ErrGroupExists), "got %v", err)

	_, err = db.AddInstanceGroup(GroupSpec{Name: "new", Instances: []InstanceSpec{{ID: 4}}})
	assert.True(t, errors.Is(err, ErrInstanceIDInUse), "got %v", err)
	assert.Contains(t, err.Error(), `"cf2"`)

	_, err = db.AddInstanceGroup(GroupSpec{Name: "new"})
	assert.True(t, errors.Is(err, ErrEmptyGroup), "got %v", err)

	_, err = db.AddInstanceGroup(GroupSpec{Name: "new", Instances: []InstanceSpec{{Name: "x"}, {Name: "x"}}})
	assert.True(t, errors.Is(err, ErrDuplicateName), "got %v", err)

	groups, err := db.InstanceGroups()
	require.NoError(t, err)
	assert.Equal(t, []string{"cf", "cf2"}, names(groups))
}

func TestRemoveAndClear(t *testing.T) {
	db := twoGroupDatabase(t)
	cf, err := db.FindGroup(filterWith("", "cf"))
	require.NoError(t, err)

	removed, err := db.RemoveInstanceGroup(cf.InternalGroupName())
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = db.RemoveInstanceGroup(cf.InternalGroupName())
	require.NoError(t, err)
	assert.False(t, removed)

	groups, err := db.InstanceGroups()
	require.NoError(t, err)
	assert.Equal(t, []string{"cf2"}, names(groups))

	n, err := db.Clear()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	groups, err = db.InstanceGroups()
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestAddInstanceGroupIDRange(t *testing.T) {
	db := twoGroupDatabase(t)

	tooBig := uint(uint64(math.MaxUint32) + 1)
	_, err := db.AddInstanceGroup(GroupSpec{Name: "big", Instances: []InstanceSpec{{ID: tooBig}}})
	assert.True(t, errors.Is(err, ErrInstanceIDRange), "got %v", err)
	_, err = db.AddInstanceGroup(GroupSpec{Name: "big", Instances: []InstanceSpec{{ID: math.MaxUint32 - 1}, {}, {ID: math.MaxUint32}}})
	require.NoError(t, err)

	groups, err := db.InstanceGroups()
	require.NoError(t, err)
	assert.Equal(t, []string{"cf", "cf2", "big"}, names(groups))
}

func TestFilterWithoutHomeMatchesEmptyHome(t *testing.T) {
	db := NewInstanceDatabase(NewMemoryStorage(
		mustGroup(t, testSpec("nohome", "", InstanceSpec{1, "a"})),
	))

	g, err := db.FindGroup(Filter{})
	require.NoError(t, err)
	assert.Equal(t, "nohome", g.GroupName())

	g, err = db.FindGroup(filterWith("", "nohome", "a"))
	require.NoError(t, err)
	assert.Equal(t, "", g.HomeDirectory())
}

func TestMutationsLogAtDebug(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()
	log.SetLevel(log.DebugLevel)
	defer log.SetLevel(log.InfoLevel)

	db := twoGroupDatabase(t)
	_, err := db.AddInstanceGroup(GroupSpec{Name: "new", Instances: []InstanceSpec{{}}})
	require.NoError(t, err)
	g, err := db.FindGroup(filterWith("", "new"))
	require.NoError(t, err)
	_, err = db.RemoveInstanceGroup(g.InternalGroupName())
	require.NoError(t, err)
	_, err = db.Clear()
	require.NoError(t, err)

	entries := hook.AllEntries()
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.Equal(t, log.DebugLevel, e.Level)
	}
	assert.Equal(t, g.InternalGroupName(), entries[1].Data["internal"])
	assert.Equal(t, 2, entries[2].Data["removed"])
}
