package util

import (
	"errors"
	"fmt"
	"os/user"
)

// SystemWideUserHome returns the home directory recorded for the invoking
// user in the system's account database, ignoring any HOME override.
func SystemWideUserHome() (string, error) {
	u, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("looking up current user: %w", err)
	}
	if u.HomeDir == "" {
		return "", errors.New("current user has no home directory")
	}
	return u.HomeDir, nil
}
