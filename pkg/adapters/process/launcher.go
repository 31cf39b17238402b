package process

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/aretw0/overlord/pkg/domain"
)

// EnvCommandID is set in every child's environment to the command's ID.
const EnvCommandID = "OVERLORD_COMMAND_ID"

// ShellLauncher starts commands through a command interpreter ("/bin/sh -c").
// Each child runs in its own process group and writes its stdout to a pipe
// owned by the caller.
type ShellLauncher struct {
	shell  string
	flag   string
	dir    string
	env    []string
	stderr io.Writer
}

// LauncherOption configures the launcher.
type LauncherOption func(*ShellLauncher)

// WithShell sets the interpreter and the flag that introduces the command line.
func WithShell(shell, flag string) LauncherOption {
	return func(l *ShellLauncher) {
		if shell != "" {
			l.shell = shell
		}
		if flag != "" {
			l.flag = flag
		}
	}
}

// WithDir sets the working directory for launched processes.
func WithDir(dir string) LauncherOption {
	return func(l *ShellLauncher) {
		l.dir = dir
	}
}

// WithEnv appends KEY=VALUE pairs to the inherited environment.
func WithEnv(env ...string) LauncherOption {
	return func(l *ShellLauncher) {
		l.env = append(l.env, env...)
	}
}

// WithStderr redirects the children's stderr. Defaults to os.Stderr.
// A writer that is not an *os.File must be safe for concurrent use.
func WithStderr(w io.Writer) LauncherOption {
	return func(l *ShellLauncher) {
		l.stderr = w
	}
}

// NewLauncher creates a launcher using /bin/sh -c by default.
func NewLauncher(opts ...LauncherOption) *ShellLauncher {
	l := &ShellLauncher{
		shell:  "/bin/sh",
		flag:   "-c",
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Process is a started child whose stdout must be drained by the caller
// before Wait is called.
type Process struct {
	Pid    int
	Stdout io.ReadCloser

	proc *os.Process

	// exited is set by AwaitExit on platforms where waiting always reaps.
	exited *domain.ExitStatus
}

// Launch starts spec. On failure it returns a *domain.SpawnError and no
// process id is assigned; the pipe is closed by exec on a failed Start.
func (l *ShellLauncher) Launch(spec domain.CommandSpec) (*Process, error) {
	cmd := exec.Command(l.shell, l.flag, spec.Line)
	cmd.Dir = l.dir
	cmd.Env = append(cmd.Environ(), l.env...)
	cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%d", EnvCommandID, spec.ID))
	setProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &domain.SpawnError{Command: spec, Err: err}
	}
	copyStderr, err := l.attachStderr(cmd)
	if err != nil {
		_ = stdout.Close()
		return nil, &domain.SpawnError{Command: spec, Err: err}
	}
	if err := cmd.Start(); err != nil {
		copyStderr(false)
		return nil, &domain.SpawnError{Command: spec, Err: err}
	}
	copyStderr(true)

	return &Process{
		Pid:    cmd.Process.Pid,
		Stdout: stdout,
		proc:   cmd.Process,
	}, nil
}

// attachStderr wires the child's stderr. Files are passed through; other
// writers get a pipe of our own, since exec only releases its pipes in
// Cmd.Wait and children are reaped directly. The returned func must be
// called once with the outcome of Start.
func (l *ShellLauncher) attachStderr(cmd *exec.Cmd) (func(started bool), error) {
	if l.stderr == nil {
		return func(bool) {}, nil
	}
	if f, ok := l.stderr.(*os.File); ok {
		cmd.Stderr = f
		return func(bool) {}, nil
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	cmd.Stderr = pw
	return func(started bool) {
		_ = pw.Close()
		if !started {
			_ = pr.Close()
			return
		}
		go func() {
			_, _ = io.Copy(l.stderr, pr)
			_ = pr.Close()
		}()
	}, nil
}

// Release frees the OS handle held for the child. Call it after Wait.
func (p *Process) Release() {
	if p.proc != nil {
		_ = p.proc.Release()
	}
}
