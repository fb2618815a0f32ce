// Package proxy implements the session that sits between a player's Telnet
// client and the game server: two protocol managers (one per direction),
// line-buffered classification of player input into mapper commands versus
// forwarded game input, and the cross-socket routing of Telnet negotiations
// neither side's handlers claim.
package proxy

import (
	"bufio"
	"context"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/seekerror/logw"

	"mapperproxy/internal/events"
	"mapperproxy/internal/pipeline"
	"mapperproxy/internal/telnet"
)

// MPIInitPrefix tells the game server that prompts are terminated by IAC GA,
// per spec section 4.4: "~$#E P2" LF "G" LF.
const MPIInitPrefix = "~$#E P2\nG\n"

// nawsPayload offers an 80x0xFFFF window, the teacher-agnostic convention
// for a mapper client that doesn't track a real terminal size.
var nawsPayload = []byte{0, 80, 0xFF, 0xFF}

// DefaultCommandPrefixes is the first-word protocol surface from spec
// section 6: any user line whose first whitespace-delimited token is one of
// these is classified as a mapper command rather than forwarded to the game.
var DefaultCommandPrefixes = buildDefaultPrefixes()

func buildDefaultPrefixes() map[string]bool {
	words := strings.Fields(`
		rdelete rnote ralign rlight rportable rridable rterrain ravoid
		rx ry rz rmobflags rloadflags exitflags doorflags secret rlink rlabel
		rinfo vnum getlabel fdoor fdynamic flabel fname fnote farea fsid
		run step stop path sync
		automap autoupdate automerge autolink
		savemap tvnum clock secretaction maphelp emu
	`)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// PromptTerminator and events.Event are re-exported under session-local
// names so callers of this package rarely need the sibling imports.
type PromptTerminator = pipeline.PromptTerminator

const (
	TerminatorIACGA = pipeline.TerminatorIACGA
	TerminatorCRLF  = pipeline.TerminatorCRLF
)

// Session owns both directions of one player<->game connection pair.
type Session struct {
	ID uuid.UUID

	PlayerConn net.Conn
	GameConn   net.Conn

	GameCodec   *telnet.Codec
	PlayerCodec *telnet.Codec

	gameIn    *pipeline.Manager // game -> player: Telnet, MPI, XML
	playerIn  *pipeline.Manager // player -> game: Telnet only
	PlayerOut *pipeline.Writer
	GameOut   *pipeline.Writer

	Events *events.Queue

	// CommandPrefixes classifies a player line's first word as a mapper
	// command. A session defaults to DefaultCommandPrefixes.
	CommandPrefixes map[string]bool

	mu                 sync.Mutex
	isEmulatingOffline bool
	terminator         PromptTerminator

	lineBuf []byte
}

// New wires a Session around two already-negotiated sockets. mpiFramer and
// xmlTokenizer are accepted as pipeline.Handler since their construction
// (subprocess wiring, OnEvent callbacks) belongs to the caller, which also
// owns the editor.Task and the events.Queue that xmlTokenizer.OnEvent feeds.
func New(playerConn, gameConn net.Conn, mpiFramer, xmlTokenizer pipeline.Handler, q *events.Queue) *Session {
	gameCodec := telnet.New()
	playerCodec := telnet.New()
	// CHARSET and NAWS are offered by this proxy on the game connection
	// (see Handshake), so their negotiation replies must not be treated as
	// unclaimed and routed to the player socket.
	gameCodec.LocalOptions = map[byte]bool{telnet.OptCharset: true, telnet.OptWindowSize: true}

	s := &Session{
		ID:              uuid.New(),
		PlayerConn:      playerConn,
		GameConn:        gameConn,
		GameCodec:       gameCodec,
		PlayerCodec:     playerCodec,
		gameIn:          pipeline.NewInbound(gameCodec, mpiFramer, xmlTokenizer),
		playerIn:        pipeline.NewOutbound(playerCodec),
		PlayerOut:       pipeline.NewWriter(playerConn),
		GameOut:         pipeline.NewWriter(gameConn),
		Events:          q,
		CommandPrefixes: DefaultCommandPrefixes,
		terminator:      TerminatorIACGA,
	}

	gameCodec.Send = func(cmd, opt byte) { _ = s.GameOut.WriteCommand(cmd, opt) }
	playerCodec.Send = func(cmd, opt byte) { _ = s.PlayerOut.WriteCommand(cmd, opt) }

	gameCodec.OnCommand = func(cmd, opt byte) {
		if cmd == telnet.GA && opt == 0 {
			s.onGamePromptGA()
		}
	}
	gameCodec.OnUnhandledCommand = func(cmd, opt byte) { _ = s.PlayerOut.WriteCommand(cmd, opt) }
	gameCodec.OnUnhandledSubnegotiation = func(opt byte, payload []byte) {
		_ = s.PlayerOut.WriteSubnegotiation(opt, payload)
	}
	playerCodec.OnUnhandledCommand = func(cmd, opt byte) { _ = s.GameOut.WriteCommand(cmd, opt) }
	playerCodec.OnUnhandledSubnegotiation = func(opt byte, payload []byte) {
		_ = s.GameOut.WriteSubnegotiation(opt, payload)
	}

	return s
}

// SetPromptTerminator changes what replaces IAC GA from the game.
func (s *Session) SetPromptTerminator(term PromptTerminator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terminator = term
}

// SetEmulatingOffline toggles whether every player line is treated as a
// mapper command (the offline emulation dialect), regardless of prefix.
func (s *Session) SetEmulatingOffline(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isEmulatingOffline = on
}

func (s *Session) onGamePromptGA() {
	s.mu.Lock()
	term := s.terminator
	s.mu.Unlock()
	if err := s.PlayerOut.WritePromptTerminator(term); err != nil {
		logw.Errorf(context.Background(), "proxy: write prompt terminator: %v", err)
	}
}

// Handshake sends the MPI init prefix and offers CHARSET and NAWS on the
// game connection, per spec section 4.4.
func (s *Session) Handshake(ctx context.Context) error {
	if err := s.GameOut.Write([]byte(MPIInitPrefix), false); err != nil {
		return err
	}
	s.GameCodec.Offer(telnet.WILL, telnet.OptCharset)
	s.GameCodec.Offer(telnet.WILL, telnet.OptWindowSize)
	if err := s.GameOut.WriteSubnegotiation(telnet.OptWindowSize, nawsPayload); err != nil {
		return err
	}
	return nil
}

// FeedGame runs bytes read from the game socket through the inbound chain
// and relays whatever the XML tokenizer leaves as display text to the
// player, escaping IAC and normalizing LF to CR-LF.
func (s *Session) FeedGame(data []byte) error {
	display := s.gameIn.Feed(data)
	if len(display) == 0 {
		return nil
	}
	return s.PlayerOut.Write(display, true)
}

// FeedPlayer accepts raw bytes from the player socket, line-buffers them,
// and for each complete line either enqueues a userInput event (when
// emulating offline, or the line's first word is a mapper command) or
// forwards it to the game socket with IAC escaping and LF normalization.
func (s *Session) FeedPlayer(ctx context.Context, data []byte) error {
	decoded := s.playerIn.Feed(data)
	s.lineBuf = append(s.lineBuf, decoded...)

	for {
		idx := indexByte(s.lineBuf, '\n')
		if idx < 0 {
			break
		}
		line := s.lineBuf[:idx]
		s.lineBuf = s.lineBuf[idx+1:]
		if err := s.handlePlayerLine(ctx, line); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) handlePlayerLine(ctx context.Context, line []byte) error {
	s.mu.Lock()
	emulating := s.isEmulatingOffline
	s.mu.Unlock()

	if emulating || s.isMapperCommand(line) {
		s.Events.Push(ctx, events.Event{Name: "userInput", Data: append([]byte(nil), line...)})
		return nil
	}
	return s.GameOut.Write(append(append([]byte(nil), line...), '\n'), true)
}

func (s *Session) isMapperCommand(line []byte) bool {
	fields := strings.Fields(string(line))
	if len(fields) == 0 {
		return false
	}
	return s.CommandPrefixes[strings.ToLower(fields[0])]
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

// RunReaders blocks reading from both sockets until either returns an error
// or ctx is done, dispatching bytes through FeedGame/FeedPlayer. It mirrors
// the teacher's one-goroutine-per-socket-direction layout, generalized to
// two sockets instead of one.
func (s *Session) RunReaders(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() { errCh <- readLoop(s.GameConn, func(b []byte) error { return s.FeedGame(b) }) }()
	go func() { errCh <- readLoop(s.PlayerConn, func(b []byte) error { return s.FeedPlayer(ctx, b) }) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func readLoop(conn net.Conn, feed func([]byte) error) error {
	r := bufio.NewReaderSize(conn, 4096)
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if ferr := feed(buf[:n]); ferr != nil {
				return ferr
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}
