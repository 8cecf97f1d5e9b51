package commands

import (
	"io"

	"github.com/linuxkit/cvd/src/cmd/cvd/instances"
)

// NewDefaultRegistry returns a registry with every cvd subcommand, in the
// order they are matched: cmd-list, help, version, clear, create, fleet,
// remove, status.
func NewDefaultRegistry(db *instances.InstanceDatabase, out io.Writer) *Registry {
	r := NewRegistry(out)
	r.Register(&cmdListHandler{registry: r, out: out})
	r.Register(&helpHandler{registry: r, out: out})
	r.Register(&versionHandler{subcommands: subcommands{"version"}, out: out})
	r.Register(&clearHandler{subcommands: subcommands{"clear"}, db: db})
	r.Register(&createHandler{subcommands: subcommands{"create"}, db: db, out: out})
	r.Register(&fleetHandler{subcommands: subcommands{"fleet"}, db: db, out: out})
	r.Register(&removeHandler{subcommands: subcommands{"remove", "rm"}, db: db})
	r.Register(&statusHandler{subcommands: subcommands{"status"}, db: db, out: out})
	return r
}
