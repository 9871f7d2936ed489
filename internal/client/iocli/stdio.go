package iocli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Stdio реализует IO поверх терминала. Не терминальный ввод (pipe, файл)
// читается построчно, в том числе пароль
type Stdio struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
	tty bool
}

// NewStdio работает с os.Stdin и os.Stdout
func NewStdio() IO {
	return New(os.Stdin, os.Stdout)
}

// New создает Stdio над произвольными потоками
func New(in io.Reader, out io.Writer) *Stdio {
	s := &Stdio{in: bufio.NewReader(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok {
		s.fd = int(f.Fd())
		s.tty = term.IsTerminal(s.fd)
	}
	return s
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

func (s *Stdio) ReadInput(prompt string) (string, error) {
	s.Printf("%s", prompt)
	return s.readLine()
}

func (s *Stdio) ReadPassword(prompt string) (string, error) {
	s.Printf("%s", prompt)
	if !s.tty {
		return s.readLine()
	}
	pwBytes, err := term.ReadPassword(s.fd)
	s.Println("")
	if err != nil {
		return "", err
	}
	return string(pwBytes), nil
}

func (s *Stdio) readLine() (string, error) {
	input, err := s.in.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
