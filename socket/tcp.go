package socket

import (
	"net"

	"github.com/searchktools/netcore/serr"
	"golang.org/x/sys/unix"
)

// tcpSocket is the plaintext variant: a raw file descriptor whose readiness
// is checked with poll before every read/write/accept, mirroring
// gensocket.c's tcpsocket function table. Only Connect switches its fd to
// non-blocking mode; bound and accepted fds stay in blocking mode unless
// SetNonblock is called.
type tcpSocket struct {
	fd int
}

// NewTCP returns an unbound plaintext socket.
func NewTCP() Socket {
	return &tcpSocket{fd: -1}
}

func newTCPFd() (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return -1, errIO("socket", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, errIO("setsockopt", err)
	}
	return fd, nil
}

func (s *tcpSocket) Bind(host string, port int) error {
	fd, err := newTCPFd()
	if err != nil {
		return err
	}

	addr := &unix.SockaddrInet4{Port: port}
	if host != "" {
		ip := net.ParseIP(host)
		if ip == nil {
			resolved, err := net.ResolveIPAddr("ip4", host)
			if err != nil {
				unix.Close(fd)
				return errConfiguration("bind", "cannot resolve host "+host)
			}
			ip = resolved.IP
		}
		ip4 := ip.To4()
		if ip4 == nil {
			unix.Close(fd)
			return errConfiguration("bind", "host is not IPv4: "+host)
		}
		copy(addr.Addr[:], ip4)
	}

	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return errIO("bind", err)
	}

	s.fd = fd
	return nil
}

func (s *tcpSocket) Listen(backlog int) error {
	if err := unix.Listen(s.fd, backlog); err != nil {
		return errIO("listen", err)
	}
	return nil
}

func (s *tcpSocket) Accept(timeoutMs int) (Socket, error) {
	if err := waitReadable(s.fd, "accept", timeoutMs); err != nil {
		return nil, err
	}

	nfd, _, err := unix.Accept(s.fd)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return nil, errAgain("accept")
		}
		return nil, errIO("accept", err)
	}

	return &tcpSocket{fd: nfd}, nil
}

func (s *tcpSocket) Connect(host string, port int, timeoutMs int) error {
	fd, err := newTCPFd()
	if err != nil {
		return err
	}

	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return errIO("set_nonblock", err)
	}

	ip := net.ParseIP(host)
	if ip == nil {
		resolved, err := net.ResolveIPAddr("ip4", host)
		if err != nil {
			unix.Close(fd)
			return errConfiguration("connect", "cannot resolve host "+host)
		}
		ip = resolved.IP
	}
	ip4 := ip.To4()
	if ip4 == nil {
		unix.Close(fd)
		return errConfiguration("connect", "host is not IPv4: "+host)
	}

	addr := &unix.SockaddrInet4{Port: port}
	copy(addr.Addr[:], ip4)

	err = unix.Connect(fd, addr)
	if err != nil && err != unix.EINPROGRESS {
		unix.Close(fd)
		return errIO("connect", err)
	}

	if err == unix.EINPROGRESS {
		if perr := waitWritable(fd, "connect", timeoutMs); perr != nil {
			unix.Close(fd)
			return perr
		}
		if serr, gerr := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR); gerr != nil || serr != 0 {
			unix.Close(fd)
			return errIO("connect", unix.Errno(serr))
		}
	}

	s.fd = fd
	return nil
}

func (s *tcpSocket) Read(buf []byte, timeoutMs, retries int) (int, error) {
	for attempt := 0; attempt <= retries; attempt++ {
		if err := waitReadable(s.fd, "read", timeoutMs); err != nil {
			if errIsAgain(err) && attempt < retries {
				continue
			}
			return 0, err
		}

		n, err := unix.Read(s.fd, buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR {
				continue
			}
			return 0, errIO("read", err)
		}
		if n == 0 {
			return 0, errPeerClosed("read")
		}
		return n, nil
	}
	return 0, errAgain("read")
}

func (s *tcpSocket) Write(buf []byte, timeoutMs, retries int) error {
	written := 0
	for attempt := 0; attempt <= retries && written < len(buf); {
		if err := waitWritable(s.fd, "write", timeoutMs); err != nil {
			if errIsAgain(err) {
				attempt++
				continue
			}
			return err
		}

		n, err := unix.Write(s.fd, buf[written:])
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR {
				attempt++
				continue
			}
			return errIO("write", err)
		}
		written += n
	}

	if written < len(buf) {
		return errAgain("write")
	}
	return nil
}

func (s *tcpSocket) Close() error {
	if s.fd < 0 {
		return nil
	}
	unix.Shutdown(s.fd, unix.SHUT_RDWR)
	err := unix.Close(s.fd)
	s.fd = -1
	if err != nil {
		return errIO("close", err)
	}
	return nil
}

func (s *tcpSocket) SetNonblock() error {
	if err := unix.SetNonblock(s.fd, true); err != nil {
		return errIO("set_nonblock", err)
	}
	return nil
}

func (s *tcpSocket) ClearNonblock() error {
	if err := unix.SetNonblock(s.fd, false); err != nil {
		return errIO("clear_nonblock", err)
	}
	return nil
}

func (s *tcpSocket) WaitForData(timeoutMs int) error {
	return waitReadable(s.fd, "wait_for_data", timeoutMs)
}

func (s *tcpSocket) WaitForWritability(timeoutMs int) error {
	return waitWritable(s.fd, "wait_for_writability", timeoutMs)
}

func (s *tcpSocket) Fd() int { return s.fd }

func (s *tcpSocket) PeerAddr() (string, error) {
	sa, err := unix.Getpeername(s.fd)
	if err != nil {
		return "", errIO("getpeername", err)
	}
	sa4, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		return "", errConfiguration("getpeername", "not an IPv4 address")
	}
	ip := net.IP(sa4.Addr[:])
	return ip.String(), nil
}

// LocalPort reports the port the kernel assigned after a Bind with port 0;
// used by tests and by diagnostics, not part of the Socket interface.
func (s *tcpSocket) LocalPort() (int, error) {
	sa, err := unix.Getsockname(s.fd)
	if err != nil {
		return 0, errIO("getsockname", err)
	}
	sa4, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		return 0, errConfiguration("getsockname", "not an IPv4 address")
	}
	return sa4.Port, nil
}

func errIsAgain(err error) bool {
	return serr.Is(err, serr.Again)
}
