package selector

import (
	"testing"

	"github.com/linuxkit/cvd/src/cmd/cvd/instances"
	"github.com/linuxkit/cvd/src/cmd/cvd/util"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withSystemHome(t *testing.T, home string) {
	t.Helper()
	old := systemWideUserHome
	systemWideUserHome = func() (string, error) {
		if home == "" {
			return "", errors.New("no home")
		}
		return home, nil
	}
	t.Cleanup(func() { systemWideUserHome = old })
}

func TestOverridenHomeDirectory(t *testing.T) {
	withSystemHome(t, "/home/a")

	tests := []struct {
		name string
		envs util.Envs
		home string
		ok   bool
	}{
		{"same as system", util.Envs{"HOME": "/home/a"}, "", false},
		{"different", util.Envs{"HOME": "/tmp/x"}, "/tmp/x", true},
		{"unset", util.Envs{}, "", false},
		{"empty", util.Envs{"HOME": ""}, "", false},
		{"nil map", nil, "", false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			home, ok := OverridenHomeDirectory(test.envs)
			assert.Equal(t, test.ok, ok)
			assert.Equal(t, test.home, home)
		})
	}
}

func TestOverridenHomeDirectoryUnknownSystemHome(t *testing.T) {
	withSystemHome(t, "")
	_, ok := OverridenHomeDirectory(util.Envs{"HOME": "/tmp/x"})
	assert.False(t, ok)
}

func TestLegacyInstanceID(t *testing.T) {
	id, ok, err := LegacyInstanceID(util.Envs{LegacyInstanceEnv: "3"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint(3), id)

	_, ok, err = LegacyInstanceID(util.Envs{})
	require.NoError(t, err)
	assert.False(t, ok)

	for _, bad := range []string{"", "abc", "-1", "1.5"} {
		_, _, err = LegacyInstanceID(util.Envs{LegacyInstanceEnv: bad})
		assert.True(t, errors.Is(err, ErrInvalidEnv), "value %q: %v", bad, err)
	}
}

func TestBuildFilterFromSelectors(t *testing.T) {
	withSystemHome(t, "/home/a")

	filter, err := BuildFilterFromSelectors(SelectorOptions{}, util.Envs{"HOME": "/home/a"})
	require.NoError(t, err)
	assert.True(t, filter.IsEmpty())

	filter, err = BuildFilterFromSelectors(SelectorOptions{
		GroupName:     "cf",
		InstanceNames: []string{"09", "tv"},
	}, util.Envs{"HOME": "/home/b", LegacyInstanceEnv: "1"})
	require.NoError(t, err)
	assert.Equal(t, "/home/b", filter.Home)
	assert.Equal(t, "cf", filter.GroupName)
	assert.Equal(t, map[string]struct{}{"09": {}, "tv": {}}, filter.InstanceNames)

	_, err = BuildFilterFromSelectors(SelectorOptions{GroupName: "cf"}, util.Envs{LegacyInstanceEnv: "x"})
	assert.True(t, errors.Is(err, ErrInvalidEnv))
}

func TestBuildFilterDoesNotReadProcessEnvironment(t *testing.T) {
	withSystemHome(t, "/home/a")
	t.Setenv("HOME", "/elsewhere")
	t.Setenv(LegacyInstanceEnv, "bogus")

	filter, err := BuildFilterFromSelectors(SelectorOptions{}, util.Envs{})
	require.NoError(t, err)
	assert.Equal(t, instances.Filter{}, filter)
}

func TestHomeDirectory(t *testing.T) {
	withSystemHome(t, "/home/a")

	home, err := HomeDirectory(util.Envs{"HOME": "/tmp/x"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x", home)

	home, err = HomeDirectory(util.Envs{})
	require.NoError(t, err)
	assert.Equal(t, "/home/a", home)

	withSystemHome(t, "")
	_, err = HomeDirectory(util.Envs{})
	assert.Error(t, err)
}
