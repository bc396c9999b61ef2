//go:build unix

package socket

import (
	"golang.org/x/sys/unix"
)

// pollFor waits up to timeoutMs for fd to become ready in the requested
// direction. timeoutMs <= 0 means block until ready. It returns errAgain on
// timeout and errIO on a poll failure other than EINTR, which it retries
// transparently.
func pollFor(fd int, events int16, op string, timeoutMs int) error {
	pfd := []unix.PollFd{{Fd: int32(fd), Events: events}}
	if timeoutMs <= 0 {
		timeoutMs = -1
	}

	for {
		n, err := unix.Poll(pfd, timeoutMs)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return errIO(op, err)
		}
		if n == 0 {
			return errAgain(op)
		}
		if pfd[0].Revents&(unix.POLLERR|unix.POLLNVAL) != 0 {
			return errIO(op, unix.EBADF)
		}
		return nil
	}
}

func waitReadable(fd int, op string, timeoutMs int) error {
	return pollFor(fd, unix.POLLIN, op, timeoutMs)
}

func waitWritable(fd int, op string, timeoutMs int) error {
	return pollFor(fd, unix.POLLOUT, op, timeoutMs)
}
