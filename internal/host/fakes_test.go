package host

import (
	"errors"
	"fmt"

	"github.com/neovim/go-client/nvim"
)

var errNoBuffer = errors.New("no such buffer")

type fakeBuffer struct {
	name     string
	lines    []string
	filetype string
}

// fakeAPI stands in for *nvim.Nvim.
type fakeAPI struct {
	current    nvim.Buffer
	buffers    map[nvim.Buffer]*fakeBuffer
	background string
	err        error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{buffers: make(map[nvim.Buffer]*fakeBuffer), background: "light"}
}

func (a *fakeAPI) open(buf nvim.Buffer, name, filetype string, lines ...string) {
	a.buffers[buf] = &fakeBuffer{name: name, lines: lines, filetype: filetype}
	a.current = buf
}

func (a *fakeAPI) buffer(buf nvim.Buffer) (*fakeBuffer, error) {
	if a.err != nil {
		return nil, a.err
	}
	b, ok := a.buffers[buf]
	if !ok {
		return nil, fmt.Errorf("%w: %d", errNoBuffer, int(buf))
	}
	return b, nil
}

func (a *fakeAPI) CurrentBuffer() (nvim.Buffer, error) {
	if a.err != nil {
		return 0, a.err
	}
	return a.current, nil
}

func (a *fakeAPI) BufferName(buf nvim.Buffer) (string, error) {
	b, err := a.buffer(buf)
	if err != nil {
		return "", err
	}
	return b.name, nil
}

func (a *fakeAPI) BufferLines(buf nvim.Buffer, start int, end int, strict bool) ([][]byte, error) {
	b, err := a.buffer(buf)
	if err != nil {
		return nil, err
	}
	lines := make([][]byte, len(b.lines))
	for i, l := range b.lines {
		lines[i] = []byte(l)
	}
	return lines, nil
}

func (a *fakeAPI) BufferOption(buf nvim.Buffer, name string, result interface{}) error {
	b, err := a.buffer(buf)
	if err != nil {
		return err
	}
	if name != "filetype" {
		return fmt.Errorf("unexpected option %q", name)
	}
	*result.(*string) = b.filetype
	return nil
}

func (a *fakeAPI) Option(name string, result interface{}) error {
	if a.err != nil {
		return a.err
	}
	if name != "background" {
		return fmt.Errorf("unexpected option %q", name)
	}
	*result.(*string) = a.background
	return nil
}

// queuePoster collects posted closures until flush runs them.
type queuePoster struct {
	queue []func()
}

func (q *queuePoster) Post(fn func()) bool {
	q.queue = append(q.queue, fn)
	return true
}

func (q *queuePoster) flush() {
	for len(q.queue) > 0 {
		fn := q.queue[0]
		q.queue = q.queue[1:]
		fn()
	}
}

type fakeSurface struct {
	running  bool
	startErr error
	starts   int
	stops    int
}

func (s *fakeSurface) Start() error {
	if s.startErr != nil {
		return s.startErr
	}
	s.starts++
	s.running = true
	return nil
}

func (s *fakeSurface) Stop() error {
	s.stops++
	s.running = false
	return nil
}

func (s *fakeSurface) Running() bool { return s.running }

func (s *fakeSurface) URL() string { return "http://127.0.0.1:7777" }

// fakeMessenger records what the commands print. It is written on the loop.
type fakeMessenger struct {
	commands []string
	out      []string
}

func (m *fakeMessenger) Command(cmd string) error {
	m.commands = append(m.commands, cmd)
	return nil
}

func (m *fakeMessenger) WriteOut(str string) error {
	m.out = append(m.out, str)
	return nil
}
