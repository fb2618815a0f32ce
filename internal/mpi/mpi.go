// Package mpi implements the MPI out-of-band block protocol framer that
// sits between the Telnet codec and the XML tokenizer on the inbound
// direction: it recognizes the "~$#E" magic at start-of-line, reads a
// command byte and decimal length, accumulates the body, and dispatches
// completed blocks to a remote-editing task.
package mpi

import (
	"context"
	"strconv"

	"mapperproxy/internal/editor"
)

// Magic is the 4-byte MPI initiation sequence, always matched immediately
// after a line feed (or at the very start of the connection).
const Magic = "~$#E"

const (
	CommandEdit byte = 'E'
	CommandView byte = 'V'
)

type state int

const (
	stateData state = iota
	stateCommand
	stateLength
	stateBody
)

// EditTask is the subset of *editor.Task the framer depends on, so tests
// can substitute a fake without spawning subprocesses.
type EditTask interface {
	Edit(ctx context.Context, body []byte) (edited []byte, ok bool, err error)
	View(ctx context.Context, body []byte) error
}

var _ EditTask = (*editor.Task)(nil)

// Framer drives the DATA/INIT/COMMAND/LENGTH/BODY state machine described
// in spec.md section 4.2. It is not safe for concurrent use.
type Framer struct {
	st state

	canInit   bool   // true once the prior byte was a line feed (or stream start)
	pendingNL bool   // a '\n' is held back, pending a decision on whether it starts an MPI block
	mpiBuf    []byte // bytes of Magic matched so far

	command   byte
	lengthBuf []byte
	length    int
	body      []byte

	task EditTask
	ctx  context.Context

	// ReplyUpstream is called with a complete reply frame to write to the
	// game socket (edit completion or cancel).
	ReplyUpstream func(frame []byte)
}

// New returns a Framer that dispatches completed MPI blocks to task.
func New(ctx context.Context, task EditTask) *Framer {
	return &Framer{st: stateData, canInit: true, task: task, ctx: ctx}
}

// Feed processes inbound bytes already decoded by the Telnet codec (LF-
// normalized, no IAC), returning the data bytes that are not part of an
// MPI block — these continue on to the XML tokenizer.
func (f *Framer) Feed(input []byte) []byte {
	out := make([]byte, 0, len(input))
	for _, b := range input {
		switch f.st {
		case stateData:
			out = f.feedData(out, b)
		case stateCommand:
			out = f.feedCommand(out, b)
		case stateLength:
			out = f.feedLength(out, b)
		case stateBody:
			f.feedBody(b)
		}
	}
	return out
}

func (f *Framer) feedData(out []byte, b byte) []byte {
	if len(f.mpiBuf) > 0 {
		if b == Magic[len(f.mpiBuf)] {
			f.mpiBuf = append(f.mpiBuf, b)
			if len(f.mpiBuf) == len(Magic) {
				f.pendingNL = false
				f.mpiBuf = f.mpiBuf[:0]
				f.st = stateCommand
			}
			return out
		}
		// mismatch: flush the held newline (if any) and the matched prefix
		// as ordinary data, then reprocess b from a clean state.
		if f.pendingNL {
			out = append(out, '\n')
		}
		out = append(out, f.mpiBuf...)
		f.mpiBuf = f.mpiBuf[:0]
		f.pendingNL = false
		f.canInit = false
		return f.feedData(out, b)
	}

	if b == '\n' {
		if f.pendingNL {
			out = append(out, '\n')
		}
		f.pendingNL = true
		f.canInit = true
		return out
	}
	if f.canInit && b == Magic[0] {
		f.mpiBuf = append(f.mpiBuf, b)
		f.canInit = false
		return out
	}
	if f.pendingNL {
		out = append(out, '\n')
		f.pendingNL = false
	}
	out = append(out, b)
	f.canInit = false
	return out
}

// feedCommand re-emits the full magic plus whatever command byte arrived
// into the data stream when the byte isn't a recognized MPI command,
// mirroring the original implementation's behavior of surfacing malformed
// MPI preambles to the player rather than silently eating them.
func (f *Framer) feedCommand(out []byte, b byte) []byte {
	if b != CommandEdit && b != CommandView {
		out = append(out, '\n')
		out = append(out, []byte(Magic)...)
		f.st = stateData
		f.canInit = false
		return f.feedData(out, b)
	}
	f.command = b
	f.lengthBuf = f.lengthBuf[:0]
	f.st = stateLength
	return out
}

// feedLength re-emits the magic, command byte, and whatever length digits
// were collected so far when the length field turns out to be malformed.
func (f *Framer) feedLength(out []byte, b byte) []byte {
	if b == '\n' {
		n, err := strconv.Atoi(string(f.lengthBuf))
		if err != nil || n < 0 {
			out = append(out, '\n')
			out = append(out, []byte(Magic)...)
			out = append(out, f.command)
			out = append(out, f.lengthBuf...)
			out = append(out, '\n')
			f.st = stateData
			f.canInit = true
			return out
		}
		f.length = n
		f.body = make([]byte, 0, n)
		if n == 0 {
			f.dispatch()
			f.st = stateData
			f.canInit = true
			return out
		}
		f.st = stateBody
		return out
	}
	if b < '0' || b > '9' {
		out = append(out, '\n')
		out = append(out, []byte(Magic)...)
		out = append(out, f.command)
		out = append(out, f.lengthBuf...)
		f.st = stateData
		f.canInit = false
		return f.feedData(out, b)
	}
	f.lengthBuf = append(f.lengthBuf, b)
	return out
}

// Flush returns any bytes the framer is holding back waiting to see
// whether they begin an MPI block (a trailing line feed, or a partial
// magic match), as plain data. Callers should invoke Flush when the
// connection closes so a line feed at the very end of the stream isn't
// silently dropped.
func (f *Framer) Flush() []byte {
	var out []byte
	if f.pendingNL {
		out = append(out, '\n')
		f.pendingNL = false
	}
	if len(f.mpiBuf) > 0 {
		out = append(out, f.mpiBuf...)
		f.mpiBuf = f.mpiBuf[:0]
	}
	f.canInit = false
	return out
}

func (f *Framer) feedBody(b byte) {
	f.body = append(f.body, b)
	if len(f.body) == f.length {
		f.dispatch()
		f.st = stateData
		f.canInit = true
	}
}

func (f *Framer) dispatch() {
	command, body := f.command, f.body
	go func() {
		switch command {
		case CommandEdit:
			f.dispatchEdit(body)
		case CommandView:
			_ = f.task.View(f.ctx, body)
		}
	}()
}

// dispatchEdit implements the exact reply framing from the original
// implementation: session id and description precede the body, separated
// by LF; success replies "E session\nedited-body\n", cancellation replies
// "C session".
func (f *Framer) dispatchEdit(payload []byte) {
	session, _, body := splitEditPayload(payload)
	edited, ok, err := f.task.Edit(f.ctx, body)
	if err != nil || !ok {
		f.sendReply(append([]byte("C"), session...))
		return
	}
	reply := append(append([]byte("E"), session...), '\n')
	reply = append(reply, edited...)
	f.sendReply(reply)
}

func (f *Framer) sendReply(reply []byte) {
	if f.ReplyUpstream == nil {
		return
	}
	reply = append(reply, '\n')
	frame := make([]byte, 0, len(Magic)+1+8+len(reply))
	frame = append(frame, []byte(Magic)...)
	frame = append(frame, 'E')
	frame = append(frame, []byte(strconv.Itoa(len(reply)))...)
	frame = append(frame, '\n')
	frame = append(frame, reply...)
	f.ReplyUpstream(frame)
}

// splitEditPayload splits an edit command's payload into its three LF-
// separated parts: session id, description, and body.
func splitEditPayload(payload []byte) (session, description, body []byte) {
	first := indexByte(payload, '\n')
	if first < 0 {
		return payload, nil, nil
	}
	session = payload[:first]
	rest := payload[first+1:]
	second := indexByte(rest, '\n')
	if second < 0 {
		return session, rest, nil
	}
	return session, rest[:second], rest[second+1:]
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}
