package commands

import (
	"fmt"
	"io"

	"github.com/linuxkit/cvd/src/cmd/cvd/version"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

type versionHandler struct {
	subcommands
	out io.Writer
}

func versionFlags() (*pflag.FlagSet, *bool, *bool) {
	var short, commit bool
	fs := pflag.NewFlagSet("version", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.BoolVar(&short, "short", false, "print just the version number")
	fs.BoolVar(&commit, "commit", false, "print just the commit")
	return fs, &short, &commit
}

func (h *versionHandler) Handle(req *CommandRequest) error {
	if !h.CanHandle(req) {
		return mismatch(h, req)
	}
	fs, short, commit := versionFlags()
	if err := fs.Parse(req.Args()); err != nil {
		return errors.Wrap(err, "version")
	}
	if *short {
		_, err := fmt.Fprintln(h.out, version.Version)
		return err
	}
	if *commit {
		_, err := fmt.Fprintln(h.out, version.GitCommit)
		return err
	}
	fmt.Fprintf(h.out, "cvd version %s\n", version.Version)
	if version.GitCommit != "" {
		fmt.Fprintf(h.out, "commit: %s\n", version.GitCommit)
	}
	return nil
}

func (h *versionHandler) SummaryHelp() string { return "Report the version of cvd" }

func (h *versionHandler) DetailedHelp([]string) string {
	fs, _, _ := versionFlags()
	return "Usage: cvd version [--short|--commit]\n\n" + fs.FlagUsages()
}

func (h *versionHandler) ShouldInterceptHelp() bool { return true }
