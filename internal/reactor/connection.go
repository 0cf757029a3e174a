// Connection state machine and idle-FIFO bookkeeping, ported from
// _examples/original_source/server_conn.cpp's Conn/accept_new_conn/
// connection_io/conn_done, with the idle FIFO's DList upgraded from
// the teacher's singly-linked list.go into an intrusive doubly-linked
// list (so a connection can unlink itself from the middle on a touch,
// not just pop from the head).
package reactor

import (
	"encoding/binary"

	"golang.org/x/sys/unix"

	"github.com/JeffersonJefferson-pixel/build-your-own-redis/internal/codec"
)

type connState int

const (
	stateRequest connState = iota
	stateResponse
	stateEnd
)

// conn is one client connection, indexed by fd in Reactor.conns and
// threaded through Reactor's idle FIFO via idlePrev/idleNext.
type conn struct {
	fd    int
	state connState

	rbuf []byte
	wbuf []byte

	lastActivityMS int64

	idlePrev, idleNext *conn
}

// readChunk is the per-syscall read size; sized well above
// MaxFrameBytes so a single Read usually drains a whole frame.
const readChunk = 64 * 1024

// idleUnlink detaches c from wherever it sits in the idle FIFO.
func idleUnlink(c *conn) {
	if c.idlePrev == nil || c.idleNext == nil {
		return
	}
	c.idlePrev.idleNext = c.idleNext
	c.idleNext.idlePrev = c.idlePrev
	c.idlePrev, c.idleNext = nil, nil
}

// idleInsertTail attaches c immediately before root (the FIFO tail),
// i.e. as the most-recently-active connection.
func idleInsertTail(root, c *conn) {
	last := root.idlePrev
	last.idleNext = c
	c.idlePrev = last
	c.idleNext = root
	root.idlePrev = c
}

// touch marks c active at nowMS and moves it to the idle FIFO tail,
// mirroring connection_io's idle_start update plus detach/re-insert.
func (r *Reactor) touch(c *conn, nowMS int64) {
	c.lastActivityMS = nowMS
	idleUnlink(c)
	idleInsertTail(&r.idleRoot, c)
}

// pollEvents returns the poll(2) events this connection currently
// wants: POLLIN while reading a request, POLLOUT while draining a
// response, always with POLLERR.
func (c *conn) pollEvents() int16 {
	if c.state == stateResponse {
		return unix.POLLOUT | unix.POLLERR
	}
	return unix.POLLIN | unix.POLLERR
}

// handleIO services one ready connection: read-and-process while in
// stateRequest, flush while in stateResponse (returning to
// stateRequest, and to any requests already buffered, once the flush
// completes).
func (r *Reactor) handleIO(c *conn, nowMS int64) {
	switch c.state {
	case stateRequest:
		r.fillBuffer(c, nowMS)
	case stateResponse:
		if r.flush(c) {
			c.state = stateRequest
			r.processRequests(c, nowMS)
		}
	}
}

// fillBuffer reads as much as is available without blocking, then
// processes every complete request frame now buffered.
func (r *Reactor) fillBuffer(c *conn, nowMS int64) {
	for {
		var tmp [readChunk]byte
		n, err := unix.Read(c.fd, tmp[:])
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			break
		}
		if err != nil {
			c.state = stateEnd
			return
		}
		if n == 0 {
			c.state = stateEnd
			return
		}
		c.rbuf = append(c.rbuf, tmp[:n]...)
		if n < readChunk {
			break
		}
	}
	r.processRequests(c, nowMS)
}

// processRequests consumes every complete frame in c.rbuf, executing
// each against the engine and appending its response to c.wbuf,
// stopping early (to wait for POLLOUT) if a response can't be flushed
// immediately — mirroring try_one_request's loop-while-fully-flushed
// control flow.
func (r *Reactor) processRequests(c *conn, nowMS int64) {
	for {
		if len(c.rbuf) < codec.LenPrefixSize {
			return
		}
		l := binary.LittleEndian.Uint32(c.rbuf[:4])
		if codec.CheckFrameLen(l, r.eng.Config.MaxFrameBytes) != nil {
			c.state = stateEnd
			return
		}
		if codec.LenPrefixSize+int(l) > len(c.rbuf) {
			return
		}
		payload := c.rbuf[codec.LenPrefixSize : codec.LenPrefixSize+int(l)]
		argv, err := codec.DecodeRequest(payload)
		c.rbuf = c.rbuf[codec.LenPrefixSize+int(l):]
		if err != nil {
			c.state = stateEnd
			return
		}

		c.wbuf = append(c.wbuf, r.eng.Execute(argv, nowMS)...)
		c.state = stateResponse
		if !r.flush(c) {
			return
		}
		c.state = stateRequest
	}
}

// flush writes as much of c.wbuf as the socket accepts without
// blocking. Returns true once the whole buffer has been sent.
func (r *Reactor) flush(c *conn) bool {
	for len(c.wbuf) > 0 {
		n, err := unix.Write(c.fd, c.wbuf)
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			return false
		}
		if err != nil {
			c.state = stateEnd
			return false
		}
		c.wbuf = c.wbuf[n:]
	}
	return true
}
