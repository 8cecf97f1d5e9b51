package commands

import (
	"github.com/linuxkit/cvd/src/cmd/cvd/instances"
	"github.com/linuxkit/cvd/src/cmd/cvd/selector"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type removeHandler struct {
	subcommands
	db *instances.InstanceDatabase
}

func (h *removeHandler) Handle(req *CommandRequest) error {
	if !h.CanHandle(req) {
		return mismatch(h, req)
	}
	g, err := selector.SelectGroup(h.db, req.Selectors(), req.Envs())
	if err != nil {
		return err
	}
	removed, err := h.db.RemoveInstanceGroup(g.InternalGroupName())
	if err != nil {
		return err
	}
	// lost a race with another remove
	if !removed {
		return errors.Wrapf(instances.ErrNotFound, "group %q", g.GroupName())
	}
	log.Infof("Removed instance group %q", g.GroupName())
	return nil
}

func (h *removeHandler) SummaryHelp() string { return "Remove an instance group from the registry" }

func (h *removeHandler) DetailedHelp([]string) string {
	return `Usage: cvd remove [--group_name=NAME]

Removes one instance group, chosen as for "cvd status".`
}

func (h *removeHandler) ShouldInterceptHelp() bool { return true }
