package commands

import (
	"github.com/linuxkit/cvd/src/cmd/cvd/selector"
	"github.com/linuxkit/cvd/src/cmd/cvd/util"
)

// CommandRequest is one invocation of the tool: a subcommand, its
// arguments with the selector flags removed, the parsed selectors and the
// caller's environment.
type CommandRequest struct {
	subcommand string
	args       []string
	selectors  selector.SelectorOptions
	envs       util.Envs
}

// NewCommandRequest builds a request from the arguments following the
// program name. Selector flags anywhere after the subcommand are extracted
// and validated, so a malformed group or instance name fails here.
func NewCommandRequest(args []string, envs util.Envs) (*CommandRequest, error) {
	req := &CommandRequest{envs: envs}
	if req.envs == nil {
		req.envs = util.Envs{}
	}
	if len(args) == 0 {
		return req, nil
	}
	req.subcommand = args[0]
	opts, rest, err := selector.ParseCommonSelectorArguments(args[1:])
	if err != nil {
		return nil, err
	}
	req.selectors = opts
	req.args = rest
	return req, nil
}

// Subcommand returns the first argument, or "" when there were none.
func (r *CommandRequest) Subcommand() string { return r.subcommand }

// Args returns the arguments after the subcommand, without selector flags.
func (r *CommandRequest) Args() []string { return append([]string(nil), r.args...) }

// Selectors returns the parsed selector flags.
func (r *CommandRequest) Selectors() selector.SelectorOptions { return r.selectors }

// Envs returns the environment the request was made with.
func (r *CommandRequest) Envs() util.Envs { return r.envs }

// WantsHelp reports whether a help flag appears before any "--".
func (r *CommandRequest) WantsHelp() bool {
	for _, arg := range r.args {
		switch arg {
		case "--":
			return false
		case "-h", "--help", "-help":
			return true
		}
	}
	return false
}
