package commands

import (
	"io"
	"strings"
)

// cmdListHandler prints every user-facing subcommand for tooling such as
// shell completion. It does not list itself.
type cmdListHandler struct {
	registry *Registry
	out      io.Writer
}

func (h *cmdListHandler) CanHandle(req *CommandRequest) bool {
	return req.Subcommand() == "cmd-list"
}

func (h *cmdListHandler) Handle(req *CommandRequest) error {
	if !h.CanHandle(req) {
		return mismatch(h, req)
	}
	return writeJSON(h.out, map[string]string{
		"subcmd": strings.Join(h.registry.CmdList(), ","),
	})
}

func (h *cmdListHandler) CmdList() []string            { return nil }
func (h *cmdListHandler) SummaryHelp() string          { return "" }
func (h *cmdListHandler) DetailedHelp([]string) string { return "" }
func (h *cmdListHandler) ShouldInterceptHelp() bool    { return false }
