//go:build !unix

package process

// AwaitExit blocks until the child exits and keeps its status for TryWait.
// The OS handle held until Release keeps the pid from being reused.
func (p *Process) AwaitExit() error {
	status, err := p.Wait()
	if err != nil {
		return err
	}
	p.exited = &status
	return nil
}
