//go:build linux

package sched

import "golang.org/x/sys/unix"

func setScheduler(policy Policy, priority int) error {
	attr := unix.SchedAttr{Priority: uint32(priority)}
	switch policy {
	case PolicyFIFO:
		attr.Policy = unix.SCHED_FIFO
	case PolicyRR:
		attr.Policy = unix.SCHED_RR
	}
	// pid 0 is the calling thread; threads it creates inherit the policy.
	return unix.SchedSetAttr(0, &attr, 0)
}
