package iocli

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Stdio пишет в stdout процесса
type Stdio struct {
	out io.Writer
	fd  int
}

func NewStdio() IO {
	return &Stdio{out: os.Stdout, fd: int(os.Stdout.Fd())}
}

func (s *Stdio) Println(a ...any) {
	_, _ = fmt.Fprintln(s.out, a...)
}

func (s *Stdio) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(s.out, format, a...)
}

func (s *Stdio) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

func (s *Stdio) IsTerminal() bool {
	return term.IsTerminal(s.fd)
}
