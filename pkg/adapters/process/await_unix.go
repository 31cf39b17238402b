//go:build unix && !linux

package process

// AwaitExit returns at once: without waitid(WNOWAIT) a child cannot be
// awaited without being reaped. Callers poll TryWait instead.
func (p *Process) AwaitExit() error {
	return nil
}
