package selector

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommonSelectorArgumentsValid(t *testing.T) {
	tests := []struct {
		args      string
		group     string
		instances []string
		rest      []string
	}{
		{"", "", nil, nil},
		{"--group_name=cf", "cf", nil, nil},
		{"--instance_name=cvd,cf", "", []string{"cvd", "cf"}, nil},
		{"--instance_name=09-1,tv-2 --group_name cf", "cf", []string{"09-1", "tv-2"}, nil},
		{"--group_name=my_cool", "my_cool", nil, nil},
		{"--instance_name=phone-1,tv", "", []string{"phone-1", "tv"}, nil},
		{"--instance_name=my-cool", "", []string{"my-cool"}, nil},
		{"-group_name cf --daemon", "cf", nil, []string{"--daemon"}},
		{"--instance_name=a --instance_name b", "", []string{"a", "b"}, nil},
		{"--num_instances 2 --group_name=cf extra", "cf", nil, []string{"--num_instances", "2", "extra"}},
		{"--group_name=cf -- --group_name=x", "cf", nil, []string{"--", "--group_name=x"}},
		{"--instance_name=a,a", "", []string{"a"}, nil},
		{"--instance_name=b,a,b --instance_name=a,c", "", []string{"b", "a", "c"}, nil},
	}
	for _, test := range tests {
		t.Run(test.args, func(t *testing.T) {
			opts, rest, err := ParseCommonSelectorArguments(strings.Fields(test.args))
			require.NoError(t, err)
			assert.Equal(t, test.group, opts.GroupName)
			assert.Equal(t, test.instances, opts.InstanceNames)
			assert.Equal(t, test.rest, rest)
		})
	}
}

func TestParseCommonSelectorArgumentsInvalid(t *testing.T) {
	tests := []string{
		"--group_name",
		"--group_name=?34",
		"--group_name=ab-cd",
		"--group_name=3a",
		"--group_name=",
		"--instance_name",
		"--instance_name=*7a",
		"--instance_name=-a",
		"--instance_name=a,,b",
		"--instance_name=",
	}
	for _, args := range tests {
		t.Run(args, func(t *testing.T) {
			_, _, err := ParseCommonSelectorArguments(strings.Fields(args))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSelector), "unexpected error: %v", err)
		})
	}
}

func TestNameValidation(t *testing.T) {
	assert.True(t, IsValidGroupName("cvd"))
	assert.True(t, IsValidGroupName("_x9"))
	assert.False(t, IsValidGroupName(""))
	assert.False(t, IsValidGroupName("9x"))
	assert.False(t, IsValidGroupName("a-b"))

	assert.True(t, IsValidInstanceName("1"))
	assert.True(t, IsValidInstanceName("phone-1"))
	assert.False(t, IsValidInstanceName(""))
	assert.False(t, IsValidInstanceName("-1"))
	assert.False(t, IsValidInstanceName("a b"))
}
