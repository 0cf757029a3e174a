// Package reactor implements Reactor: the single-threaded,
// poll-driven event loop of spec.md §4.8, directly ported from
// _examples/original_source/server.cpp's run_event_loop/next_timer_ms/
// process_timers plus server_conn.cpp's accept_new_conn/conn_done.
// golang.org/x/sys/unix stands in for the reference's raw <sys/
// socket.h>/<poll.h> calls, since the spec specifies poll-based
// mechanics net.Listener/net.Conn would hide behind blocking I/O.
package reactor

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/JeffersonJefferson-pixel/build-your-own-redis/internal/engine"
)

// Reactor owns the listening socket, the fd-indexed connection table,
// and the idle FIFO, and drives them from a single goroutine.
type Reactor struct {
	eng *engine.Engine
	log *zap.Logger

	listenFD int
	conns    []*conn // indexed directly by fd, grown on demand
	idleRoot conn    // sentinel; idleRoot.idleNext is the FIFO head (oldest)
}

// New returns a Reactor bound to eng. Call Listen before Run.
func New(eng *engine.Engine) *Reactor {
	r := &Reactor{eng: eng, log: eng.Log, listenFD: -1}
	r.idleRoot.idleNext = &r.idleRoot
	r.idleRoot.idlePrev = &r.idleRoot
	return r
}

// Listen opens, binds, and marks nonblocking the listening socket at
// r.eng.Config.Addr, per accept_new_conn's fd_set_nb(connfd) — applied
// here to the listening fd itself, the way a nonblocking accept loop
// requires.
func (r *Reactor) Listen() error {
	host, portStr, err := net.SplitHostPort(r.eng.Config.Addr)
	if err != nil {
		return fmt.Errorf("reactor: invalid addr %q: %w", r.eng.Config.Addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("reactor: invalid port %q: %w", portStr, err)
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return fmt.Errorf("reactor: socket: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return fmt.Errorf("reactor: setsockopt: %w", err)
	}

	sa := &unix.SockaddrInet4{Port: port}
	if host != "" && host != "0.0.0.0" {
		ip := net.ParseIP(host).To4()
		if ip == nil {
			unix.Close(fd)
			return fmt.Errorf("reactor: invalid listen host %q", host)
		}
		copy(sa.Addr[:], ip)
	}

	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return fmt.Errorf("reactor: bind: %w", err)
	}
	if err := unix.Listen(fd, r.eng.Config.ListenBacklog); err != nil {
		unix.Close(fd)
		return fmt.Errorf("reactor: listen: %w", err)
	}
	if err := setNonblock(fd); err != nil {
		unix.Close(fd)
		return fmt.Errorf("reactor: set nonblocking: %w", err)
	}

	r.listenFD = fd
	r.log.Info("listening", zap.String("addr", r.eng.Config.Addr))
	return nil
}

func setNonblock(fd int) error {
	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	if err != nil {
		return err
	}
	_, err = unix.FcntlInt(uintptr(fd), unix.F_SETFL, flags|unix.O_NONBLOCK)
	return err
}

// Close releases the listening socket and every live connection.
func (r *Reactor) Close() {
	if r.listenFD >= 0 {
		unix.Close(r.listenFD)
		r.listenFD = -1
	}
	for _, c := range r.conns {
		if c != nil {
			r.closeConn(c)
		}
	}
}

// Run drives the event loop until ctx is cancelled or poll fails.
func (r *Reactor) Run(ctx context.Context) error {
	var pollArgs []unix.PollFd
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		pollArgs = pollArgs[:0]
		pollArgs = append(pollArgs, unix.PollFd{Fd: int32(r.listenFD), Events: unix.POLLIN})
		fdIndex := make([]int, 1, len(r.conns)+1)
		fdIndex[0] = -1
		for fd, c := range r.conns {
			if c == nil {
				continue
			}
			pollArgs = append(pollArgs, unix.PollFd{Fd: int32(fd), Events: c.pollEvents()})
			fdIndex = append(fdIndex, fd)
		}

		timeoutMS := r.nextTimeoutMS()
		n, err := unix.Poll(pollArgs, timeoutMS)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return fmt.Errorf("reactor: poll: %w", err)
		}

		nowMS := nowMonotonicMS()
		if n > 0 {
			for i := 1; i < len(pollArgs); i++ {
				if pollArgs[i].Revents == 0 {
					continue
				}
				c := r.conns[fdIndex[i]]
				r.touch(c, nowMS)
				r.handleIO(c, nowMS)
				if c.state == stateEnd {
					r.closeConn(c)
				}
			}
		}

		r.eng.Tick(nowMS)
		r.expireIdle(nowMS)

		if n > 0 && pollArgs[0].Revents != 0 {
			r.accept(nowMS)
		}
	}
}

// nextTimeoutMS computes poll's timeout as the sooner of the idle
// FIFO head's deadline and the TTL heap's next expiration, per
// spec.md §4.8 step 1 and the resolved Open Question ("implementers
// should adopt the intended behavior": a true min(), not the
// reference's buggy `next_ms == g_data.heap[0].val` comparison).
func (r *Reactor) nextTimeoutMS() int {
	nowMS := nowMonotonicMS()
	next := int64(-1)

	if head := r.idleRoot.idleNext; head != &r.idleRoot {
		next = head.lastActivityMS + r.eng.Config.IdleTimeoutMS
	}
	if top, ok := r.eng.Keyspace.PeekTTL(); ok {
		if next < 0 || int64(top) < next {
			next = int64(top)
		}
	}
	if next < 0 {
		return -1
	}
	if next <= nowMS {
		return 0
	}
	return int(next - nowMS)
}

// expireIdle closes every connection at the idle FIFO head that has
// been inactive longer than IdleTimeoutMS, per spec.md §4.8 step 5.
func (r *Reactor) expireIdle(nowMS int64) {
	for {
		head := r.idleRoot.idleNext
		if head == &r.idleRoot {
			return
		}
		if head.lastActivityMS+r.eng.Config.IdleTimeoutMS > nowMS {
			return
		}
		r.log.Debug("closing idle connection", zap.Int("fd", head.fd))
		r.closeConn(head)
	}
}

// accept admits one new nonblocking connection (accept4-equivalent),
// registers it in stateRequest, and pushes it to the idle FIFO tail.
func (r *Reactor) accept(nowMS int64) {
	connFD, _, err := unix.Accept(r.listenFD)
	if err != nil {
		if err != unix.EAGAIN {
			r.log.Warn("accept failed", zap.Error(err))
		}
		return
	}
	if err := setNonblock(connFD); err != nil {
		unix.Close(connFD)
		return
	}

	c := &conn{fd: connFD, state: stateRequest, lastActivityMS: nowMS}
	for len(r.conns) <= connFD {
		r.conns = append(r.conns, nil)
	}
	r.conns[connFD] = c
	idleInsertTail(&r.idleRoot, c)
}

// closeConn unregisters c from the fd table and idle FIFO before
// closing its socket — the ordering spec.md §9's Open Question
// resolution prefers.
func (r *Reactor) closeConn(c *conn) {
	if c.fd < len(r.conns) {
		r.conns[c.fd] = nil
	}
	idleUnlink(c)
	unix.Close(c.fd)
}
