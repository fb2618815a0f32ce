// Package pipeline implements the per-direction protocol manager described
// for the proxy session: an ordered chain of handlers that each expose a
// Feed(bytes) bytes transform, plus the reverse-direction writer that
// escapes and normalizes outbound bytes before they hit the socket.
package pipeline

import (
	"io"
	"sync"

	"mapperproxy/internal/telnet"
)

// Handler is satisfied by every protocol layer in the chain: the Telnet
// codec, the MPI framer, and the XML tokenizer all already expose exactly
// this shape.
type Handler interface {
	Feed([]byte) []byte
}

// Manager owns one direction's ordered handler chain. The game-to-player
// manager chains Telnet, MPI, and XML in that order; the player-to-game
// manager is Telnet alone (GMCP, if ever added, would sit after it).
type Manager struct {
	handlers []Handler
	// Telnet is the chain's Telnet codec, exposed directly so the proxy
	// session can wire option negotiation and cross-socket routing without
	// walking the handler list.
	Telnet *telnet.Codec
}

// NewInbound returns the game-to-player manager: Telnet, then MPI, then the
// XML tokenizer.
func NewInbound(codec *telnet.Codec, handlers ...Handler) *Manager {
	return &Manager{handlers: append([]Handler{codec}, handlers...), Telnet: codec}
}

// NewOutbound returns the player-to-game manager: Telnet alone.
func NewOutbound(codec *telnet.Codec) *Manager {
	return &Manager{handlers: []Handler{codec}, Telnet: codec}
}

// Feed runs data through every handler in the chain in order, returning
// whatever the last handler leaves for display or onward transmission.
func (m *Manager) Feed(data []byte) []byte {
	for _, h := range m.handlers {
		data = h.Feed(data)
	}
	return data
}

// PromptTerminator selects what replaces IAC GA when the proxy relays a
// prompt to the player.
type PromptTerminator int

const (
	TerminatorIACGA PromptTerminator = iota
	TerminatorCRLF
)

// Writer drives the reverse-direction chain: escape IAC, normalize LF to
// CR-LF, optionally transcode through a negotiated charset, then write to
// the socket under a mutex, mirroring the teacher's WriteString.
type Writer struct {
	mu      sync.Mutex
	conn    io.Writer
	Charset *telnet.Charset // nil means write bytes as-is (no charmap transcoding)
}

// NewWriter returns a Writer that sends to conn.
func NewWriter(conn io.Writer) *Writer {
	return &Writer{conn: conn}
}

// Write sends data to the socket. When escape is true, data is run through
// telnet.Escape first (doubling IAC, normalizing LF to CR-LF); set escape
// to false only for bytes that are already framed (e.g. a pre-built
// negotiation or MPI reply).
func (w *Writer) Write(data []byte, escape bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Charset != nil {
		data = w.Charset.Encode(data)
	}
	if escape {
		data = telnet.Escape(data)
	}
	_, err := w.conn.Write(data)
	return err
}

// WriteCommand sends a bare IAC command or an IAC DO/DONT/WILL/WONT opt
// negotiation, unescaped.
func (w *Writer) WriteCommand(cmd byte, opt ...byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := w.conn.Write(telnet.EncodeCommand(cmd, opt...))
	return err
}

// WriteSubnegotiation sends a complete IAC SB opt payload IAC SE run.
func (w *Writer) WriteSubnegotiation(opt byte, payload []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := w.conn.Write(telnet.EncodeSubnegotiation(opt, payload))
	return err
}

// WritePromptTerminator replaces an upstream IAC GA with the configured
// terminator: IAC GA itself by default, or a plain CR-LF when the session
// is configured for clients that don't handle go-ahead.
func (w *Writer) WritePromptTerminator(term PromptTerminator) error {
	switch term {
	case TerminatorCRLF:
		return w.Write([]byte("\r\n"), false)
	default:
		return w.WriteCommand(telnet.GA)
	}
}
