package util

import "os"

// FileLock is an advisory lock held on an open file.
type FileLock struct {
	file *os.File
}

// Path returns the path of the locked file.
func (l *FileLock) Path() string {
	if l.file == nil {
		return ""
	}
	return l.file.Name()
}
