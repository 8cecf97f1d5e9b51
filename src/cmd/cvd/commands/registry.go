package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/pkg/errors"
)

var (
	// ErrUnrecognizedCommand is returned when no handler accepts a request.
	ErrUnrecognizedCommand = errors.New("unrecognized command")
	// ErrRequestMismatch is returned when a handler is given a request it
	// does not accept.
	ErrRequestMismatch = errors.New("handler cannot handle request")
)

// Handler serves one or more subcommands.
type Handler interface {
	// CanHandle reports whether the handler accepts req.
	CanHandle(req *CommandRequest) bool
	// Handle runs the request. It fails with ErrRequestMismatch when
	// CanHandle(req) is false.
	Handle(req *CommandRequest) error
	// CmdList returns the subcommand names shown to users. Internal
	// handlers return none.
	CmdList() []string
	// SummaryHelp is a one line description, empty for internal handlers.
	SummaryHelp() string
	// DetailedHelp describes usage of the subcommand given its arguments.
	DetailedHelp(args []string) string
	// ShouldInterceptHelp reports whether --help on this subcommand prints
	// DetailedHelp instead of running Handle.
	ShouldInterceptHelp() bool
}

// Registry dispatches requests to handlers in registration order.
type Registry struct {
	handlers []Handler
	out      io.Writer
}

// NewRegistry returns an empty registry that prints help to out.
func NewRegistry(out io.Writer) *Registry {
	return &Registry{out: out}
}

// Register appends h. Earlier handlers win when several accept a request.
func (r *Registry) Register(h Handler) {
	r.handlers = append(r.handlers, h)
}

// Handlers returns the registered handlers in registration order.
func (r *Registry) Handlers() []Handler {
	return append([]Handler(nil), r.handlers...)
}

// Find returns the first handler that accepts req.
func (r *Registry) Find(req *CommandRequest) (Handler, error) {
	for _, h := range r.handlers {
		if h.CanHandle(req) {
			return h, nil
		}
	}
	return nil, errors.Wrapf(ErrUnrecognizedCommand, "%q", req.Subcommand())
}

// CmdList returns the sorted, de-duplicated union of every handler's
// subcommand names.
func (r *Registry) CmdList() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, h := range r.handlers {
		for _, name := range h.CmdList() {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Execute finds the handler for req and runs it, or prints its detailed
// help when the request asks for help and the handler intercepts it.
func (r *Registry) Execute(req *CommandRequest) error {
	h, err := r.Find(req)
	if err != nil {
		return err
	}
	if req.WantsHelp() && h.ShouldInterceptHelp() {
		_, err := fmt.Fprintln(r.out, h.DetailedHelp(req.Args()))
		return err
	}
	return h.Handle(req)
}

func mismatch(h Handler, req *CommandRequest) error {
	return errors.Wrapf(ErrRequestMismatch, "%T given %q", h, req.Subcommand())
}

// subcommands implements CanHandle and CmdList for handlers keyed on a
// fixed set of subcommand names.
type subcommands []string

func (s subcommands) CanHandle(req *CommandRequest) bool {
	for _, name := range s {
		if req.Subcommand() == name {
			return true
		}
	}
	return false
}

func (s subcommands) CmdList() []string {
	return append([]string(nil), s...)
}
