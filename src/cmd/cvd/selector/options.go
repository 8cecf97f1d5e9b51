package selector

import (
	"io"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

const (
	// GroupNameFlag selects a group by its user-facing name.
	GroupNameFlag = "group_name"
	// InstanceNameFlag selects instances by name. It takes a comma separated
	// list and may be repeated.
	InstanceNameFlag = "instance_name"
)

var (
	// ErrInvalidSelector is returned for malformed or ill-formed selector flags.
	ErrInvalidSelector = errors.New("invalid selector")

	groupNamePattern    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	instanceNamePattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_-]*$`)

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(v.RegisterValidation("group_name", func(fl validator.FieldLevel) bool {
		return groupNamePattern.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("instance_name", func(fl validator.FieldLevel) bool {
		return instanceNamePattern.MatchString(fl.Field().String())
	}))
	return v
}

// IsValidGroupName reports whether name may be used as a group name: a
// letter or underscore followed by letters, digits or underscores.
func IsValidGroupName(name string) bool {
	return validate.Var(name, "required,group_name") == nil
}

// IsValidInstanceName reports whether name may be used as an instance name:
// letters, digits, underscores and dashes, not starting with a dash.
func IsValidInstanceName(name string) bool {
	return validate.Var(name, "required,instance_name") == nil
}

// SelectorOptions are the selector flags given on a command line.
type SelectorOptions struct {
	GroupName     string
	InstanceNames []string
}

// IsEmpty reports whether no selector flag was given.
func (o SelectorOptions) IsEmpty() bool {
	return o.GroupName == "" && len(o.InstanceNames) == 0
}

// ParseCommonSelectorArguments removes the selector flags from args and
// returns them parsed and validated along with the remaining arguments in
// their original order. Repeated instance names collapse to their first
// occurrence. Flags may be written as --flag=value, --flag value
// or with a single dash. Arguments after "--" are never treated as selectors.
func ParseCommonSelectorArguments(args []string) (SelectorOptions, []string, error) {
	var selectorArgs, rest []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			rest = append(rest, args[i:]...)
			break
		}
		name, value, hasValue, ok := selectorFlag(arg)
		if !ok {
			rest = append(rest, arg)
			continue
		}
		if !hasValue {
			if i+1 >= len(args) {
				return SelectorOptions{}, nil, errors.Wrapf(ErrInvalidSelector, "flag --%s needs a value", name)
			}
			i++
			value = args[i]
		}
		selectorArgs = append(selectorArgs, "--"+name+"="+value)
	}

	var opts SelectorOptions
	fs := pflag.NewFlagSet("selector", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.GroupName, GroupNameFlag, "", "Instance group name")
	fs.StringSliceVar(&opts.InstanceNames, InstanceNameFlag, nil, "Comma separated instance names")
	if err := fs.Parse(selectorArgs); err != nil {
		return SelectorOptions{}, nil, errors.Wrap(ErrInvalidSelector, err.Error())
	}

	if fs.Changed(GroupNameFlag) && !IsValidGroupName(opts.GroupName) {
		return SelectorOptions{}, nil, errors.Wrapf(ErrInvalidSelector, "invalid group name %q", opts.GroupName)
	}
	if fs.Changed(InstanceNameFlag) {
		if len(opts.InstanceNames) == 0 {
			return SelectorOptions{}, nil, errors.Wrap(ErrInvalidSelector, "empty instance name list")
		}
		seen := make(map[string]struct{}, len(opts.InstanceNames))
		unique := opts.InstanceNames[:0]
		for _, name := range opts.InstanceNames {
			if !IsValidInstanceName(name) {
				return SelectorOptions{}, nil, errors.Wrapf(ErrInvalidSelector, "invalid instance name %q", name)
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			unique = append(unique, name)
		}
		opts.InstanceNames = unique
	}
	return opts, rest, nil
}

func selectorFlag(arg string) (name, value string, hasValue, ok bool) {
	if !strings.HasPrefix(arg, "-") {
		return "", "", false, false
	}
	name, value, hasValue = strings.Cut(strings.TrimPrefix(strings.TrimPrefix(arg, "-"), "-"), "=")
	switch name {
	case GroupNameFlag, InstanceNameFlag:
		return name, value, hasValue, true
	}
	return "", "", false, false
}
