package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool

	touches int
	calls   []string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) touch()           { f.touches++ }

func (f *fakeExec) Login(ctx context.Context) error {
	f.calls = append(f.calls, "login")
	f.loggedIn = true
	return nil
}

func (f *fakeExec) Logout(ctx context.Context) error {
	f.calls = append(f.calls, "logout")
	f.loggedIn = false
	return nil
}

func (f *fakeExec) Status(ctx context.Context) error  { f.calls = append(f.calls, "status"); return nil }
func (f *fakeExec) Reset(ctx context.Context) error   { f.calls = append(f.calls, "reset"); return nil }
func (f *fakeExec) Pause(ctx context.Context) error   { f.calls = append(f.calls, "pause"); return nil }
func (f *fakeExec) Enable(ctx context.Context) error  { f.calls = append(f.calls, "enable"); return nil }
func (f *fakeExec) Disable(ctx context.Context) error { f.calls = append(f.calls, "disable"); return nil }
func (f *fakeExec) Acknowledge(ctx context.Context) error {
	f.calls = append(f.calls, "ack")
	return nil
}

func (f *fakeExec) Vacation(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "vacation "+strings.Join(args, " "))
	return nil
}

func (f *fakeExec) AutoLogout(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "autologout "+strings.Join(args, " "))
	return nil
}

func (f *fakeExec) Audit(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "audit "+strings.Join(args, " "))
	return nil
}

func capturePrints(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	origPrint := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, fmt.Sprint(a...))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = origPrint })
	return &lines
}

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	capturePrints(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"login",
		"help",
		"status",
		"r",
		"pause",
		"vacation on 14",
		"autologout 15",
		"ack",
		"audit login",
		"foobar",
		"logout",
		"exit",
	}, "\n"))

	exec := &fakeExec{loggedIn: false}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "status" }, sc)

	assert.Equal(t, []string{
		"login", "status", "reset", "pause", "vacation on 14",
		"autologout 15", "ack", "audit login", "logout",
	}, exec.calls)
	assert.Equal(t, 13, exec.touches)
}

func TestRunREPL_RequiresLogin(t *testing.T) {
	lines := capturePrints(t)

	input := strings.NewReader("status\nreset\nvacation off\naudit\n\nquit\n")
	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewScanner(input))

	assert.Equal(t, []string{"audit "}, exec.calls)
	assert.Contains(t, *lines, "Please log in first")
	assert.Contains(t, *lines, "Bye!")
}

func TestRunREPL_UsageAndQuit(t *testing.T) {
	lines := capturePrints(t)

	input := strings.NewReader("get\nQUIT\n")
	exec := &fakeExec{loggedIn: true}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "s" }, sc)

	if len(exec.calls) != 0 {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
	assert.Contains(t, *lines, "Unknown command:get")
	assert.Equal(t, "ls s > ", (*lines)[0])
}

func TestRunREPL_EOF(t *testing.T) {
	capturePrints(t)

	exec := &fakeExec{loggedIn: true}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(strings.NewReader("disable")))

	assert.Equal(t, []string{"disable"}, exec.calls)
}
