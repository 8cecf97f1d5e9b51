package commands

import (
	"io"

	"github.com/linuxkit/cvd/src/cmd/cvd/instances"
	"github.com/linuxkit/cvd/src/cmd/cvd/selector"
)

type statusHandler struct {
	subcommands
	db  *instances.InstanceDatabase
	out io.Writer
}

func (h *statusHandler) Handle(req *CommandRequest) error {
	if !h.CanHandle(req) {
		return mismatch(h, req)
	}
	g, selected, err := selector.SelectInstances(h.db, req.Selectors(), req.Envs())
	if err != nil {
		return err
	}
	return writeJSON(h.out, newGroupStatus(g, selected))
}

func (h *statusHandler) SummaryHelp() string { return "Show an instance group" }

func (h *statusHandler) DetailedHelp([]string) string {
	return `Usage: cvd status [--group_name=NAME] [--instance_name=NAME[,NAME...]]

Prints one instance group as JSON, limited to the named instances if any.
Without selectors the only group is used, or the group in the user's home
directory when there are several.`
}

func (h *statusHandler) ShouldInterceptHelp() bool { return true }
