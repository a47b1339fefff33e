//go:build !linux

package sched

func setScheduler(Policy, int) error {
	return ErrUnsupported
}
