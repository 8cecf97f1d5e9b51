package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const helpUsage = `Usage: cvd [-q] [-v N] <command> [--group_name=NAME] [--instance_name=NAME[,NAME...]] [args...]

Commands:
`

// helpHandler lists subcommands, or describes one. It also serves an
// invocation with no subcommand at all.
type helpHandler struct {
	registry *Registry
	out      io.Writer
}

func (h *helpHandler) CanHandle(req *CommandRequest) bool {
	return req.Subcommand() == "help" || req.Subcommand() == ""
}

func (h *helpHandler) Handle(req *CommandRequest) error {
	if !h.CanHandle(req) {
		return mismatch(h, req)
	}
	args := req.Args()
	if len(args) == 0 {
		_, err := io.WriteString(h.out, h.summary())
		return err
	}
	target, err := h.registry.Find(&CommandRequest{subcommand: args[0]})
	if err != nil {
		return err
	}
	if len(target.CmdList()) == 0 {
		return errors.Wrapf(ErrUnrecognizedCommand, "%q", args[0])
	}
	_, err = fmt.Fprintln(h.out, target.DetailedHelp(args[1:]))
	return err
}

func (h *helpHandler) summary() string {
	var b strings.Builder
	b.WriteString(helpUsage)
	for _, handler := range h.registry.Handlers() {
		names := handler.CmdList()
		if len(names) == 0 || handler.SummaryHelp() == "" {
			continue
		}
		fmt.Fprintf(&b, "  %-14s %s\n", strings.Join(names, ", "), handler.SummaryHelp())
	}
	b.WriteString("\nRun 'cvd help <command>' for more information on a command.\n")
	return b.String()
}

func (h *helpHandler) CmdList() []string   { return []string{"help"} }
func (h *helpHandler) SummaryHelp() string { return "Print this message, or help on a command" }

func (h *helpHandler) DetailedHelp([]string) string {
	return "Usage: cvd help [command]\n\nWithout a command, lists every command. With one, describes it."
}

func (h *helpHandler) ShouldInterceptHelp() bool { return true }
