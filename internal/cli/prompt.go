package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var errEmptyPassword = errors.New("password must not be empty")

// PasswordReader reads one secret line after printing label.
type PasswordReader func(label string) (string, error)

// TerminalPasswordReader disables echo when stdin is a terminal and falls back to a plain
// line read otherwise, so passwords can also be piped in.
func TerminalPasswordReader(stdin *os.File, out io.Writer) PasswordReader {
	reader := bufio.NewReader(stdin)
	return func(label string) (string, error) {
		fmt.Fprint(out, label)
		raw, err := readPasswordNoEcho(stdin, reader)
		if errors.Is(err, errNotTerminal) {
			raw, err = readLine(reader)
		}
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		if len(raw) == 0 {
			return "", errEmptyPassword
		}
		return string(raw), nil
	}
}

func readLine(reader *bufio.Reader) ([]byte, error) {
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}
