package commands

import (
	"github.com/linuxkit/cvd/src/cmd/cvd/instances"
	log "github.com/sirupsen/logrus"
)

type clearHandler struct {
	subcommands
	db *instances.InstanceDatabase
}

func (h *clearHandler) Handle(req *CommandRequest) error {
	if !h.CanHandle(req) {
		return mismatch(h, req)
	}
	n, err := h.db.Clear()
	if err != nil {
		return err
	}
	log.Infof("Removed %d instance group(s)", n)
	return nil
}

func (h *clearHandler) SummaryHelp() string { return "Remove every instance group" }

func (h *clearHandler) DetailedHelp([]string) string {
	return "Usage: cvd clear\n\nDrops every instance group from the registry."
}

func (h *clearHandler) ShouldInterceptHelp() bool { return true }
