package command

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Response is a canned reply for a FakeRunner invocation.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int

	// Err, if set, is returned as-is (simulates a command that could not run).
	Err error
}

// Call records one invocation seen by a FakeRunner.
type Call struct {
	Name string
	Args []string
}

// String renders the call the way it would be typed in a shell.
func (c Call) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// FakeRunner is a scripted Runner for tests. Responses are keyed by the full
// command line ("docker ps --format {{.Names}}"). Unknown commands fail.
type FakeRunner struct {
	mu        sync.Mutex
	responses map[string]Response
	calls     []Call
}

// NewFakeRunner returns an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{responses: make(map[string]Response)}
}

// On registers the response for a command line.
func (f *FakeRunner) On(cmdline string, resp Response) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[cmdline] = resp
	return f
}

// Run implements Runner.
func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	call := Call{Name: name, Args: append([]string(nil), args...)}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	resp, ok := f.responses[call.String()]
	f.mu.Unlock()

	if !ok {
		return Result{}, fmt.Errorf("fake runner: no response for %q", call.String())
	}
	if resp.Err != nil {
		return Result{}, resp.Err
	}

	res := Result{Stdout: resp.Stdout, Stderr: resp.Stderr, ExitCode: resp.ExitCode}
	if resp.ExitCode != 0 {
		return res, &ExitError{Name: name, Args: call.Args, ExitCode: resp.ExitCode, Stderr: resp.Stderr}
	}
	return res, nil
}

// Calls returns a copy of every invocation so far.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallCount returns how many times cmdline was invoked.
func (f *FakeRunner) CallCount(cmdline string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.String() == cmdline {
			n++
		}
	}
	return n
}
