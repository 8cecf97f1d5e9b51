package commands

import (
	"io"

	"github.com/linuxkit/cvd/src/cmd/cvd/instances"
)

type fleetHandler struct {
	subcommands
	db  *instances.InstanceDatabase
	out io.Writer
}

func (h *fleetHandler) Handle(req *CommandRequest) error {
	if !h.CanHandle(req) {
		return mismatch(h, req)
	}
	groups, err := h.db.InstanceGroups()
	if err != nil {
		return err
	}
	fleet := struct {
		Groups []groupStatus `json:"groups"`
	}{Groups: make([]groupStatus, 0, len(groups))}
	for _, g := range groups {
		fleet.Groups = append(fleet.Groups, newGroupStatus(g, g.Instances()))
	}
	return writeJSON(h.out, fleet)
}

func (h *fleetHandler) SummaryHelp() string { return "List every registered instance group" }

func (h *fleetHandler) DetailedHelp([]string) string {
	return "Usage: cvd fleet\n\nPrints all instance groups of the current user as JSON."
}

func (h *fleetHandler) ShouldInterceptHelp() bool { return true }
