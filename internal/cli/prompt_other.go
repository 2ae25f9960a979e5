//go:build !windows && !linux && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly

package cli

import (
	"bufio"
	"errors"
	"os"
)

var errNotTerminal = errors.New("echo control unsupported on this platform")

func readPasswordNoEcho(_ *os.File, _ *bufio.Reader) ([]byte, error) {
	return nil, errNotTerminal
}
