package main

import (
	"os"

	"github.com/linuxkit/cvd/src/cmd/cvd/util"
)

func main() {
	if err := newCmd(util.CurrentEnvs(), os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
