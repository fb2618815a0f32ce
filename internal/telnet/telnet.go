// Package telnet implements the byte-at-a-time Telnet codec that sits at
// the bottom of the proxy's stream pipeline: IAC command/option/
// subnegotiation recognition, IAC escaping, and CR/LF/NUL normalization.
package telnet

// Telnet command bytes (RFC 854).
const (
	IAC  byte = 255
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	SB   byte = 250
	SE   byte = 240
	NOP  byte = 241
	DM   byte = 242
	BRK  byte = 243
	IP   byte = 244
	AO   byte = 245
	AYT  byte = 246
	EC   byte = 247
	EL   byte = 248
	GA   byte = 249
)

// Well-known option codes the proxy cares about.
const (
	OptEcho         byte = 1
	OptSuppressGA   byte = 3
	OptTerminalType byte = 24
	OptWindowSize   byte = 31
	OptLineMode     byte = 34
	OptCharset      byte = 42
)

type state int

const (
	stateData state = iota
	stateIACSeen
	stateCommandArg
	stateSub
	stateSubIAC
	stateNewline
)

// optionState tracks one side's negotiated state for one option, following
// the RFC 1143 q-method: an option we have offered but not yet heard back
// on must not trigger another offer when the peer happens to echo DO/DONT
// back at us.
type optionState struct {
	enabled bool
	offered bool
}

// Codec drives the byte-at-a-time Telnet state machine described for the
// proxy's stream pipeline. It is not safe for concurrent use; a Codec is
// owned by exactly one direction of exactly one session.
type Codec struct {
	st      state
	subOpt  byte
	subBuf  []byte
	pendCmd byte

	local  map[byte]*optionState
	remote map[byte]*optionState

	// OnCommand fires for a bare IAC cmd (no option byte), and for every
	// DO/DONT/WILL/WONT negotiation except a reply to one of its own offers.
	OnCommand func(cmd, opt byte)
	// OnSubnegotiation fires once a complete IAC SB opt ... IAC SE run has
	// been collected.
	OnSubnegotiation func(opt byte, payload []byte)
	// OnUnhandledCommand fires for DO/DONT/WILL/WONT naming an option this
	// codec has no Local/Remote policy for, so the proxy session can route
	// it to the opposite socket unchanged.
	OnUnhandledCommand func(cmd, opt byte)
	// OnUnhandledSubnegotiation mirrors OnUnhandledCommand for subnegotiations.
	OnUnhandledSubnegotiation func(opt byte, payload []byte)

	// LocalOptions and RemoteOptions declare the options this side of the
	// codec is willing to enable via WILL/DO respectively. An option absent
	// from both maps is "unhandled" and is surfaced via the OnUnhandled*
	// callbacks instead of being answered automatically.
	LocalOptions  map[byte]bool
	RemoteOptions map[byte]bool

	// Send, if set, is called with every negotiation reply the codec
	// computes on its own (RFC 1143 responses) and with every Offer. The
	// proxy session wires this directly to the socket writer.
	Send func(cmd, opt byte)
}

// New returns a Codec ready to process inbound bytes.
func New() *Codec {
	return &Codec{
		st:     stateData,
		local:  make(map[byte]*optionState),
		remote: make(map[byte]*optionState),
	}
}

// IsLocalEnabled reports whether this side is currently willing to perform
// (WILL) the given option.
func (c *Codec) IsLocalEnabled(opt byte) bool {
	s, ok := c.local[opt]
	return ok && s.enabled
}

// IsRemoteEnabled reports whether the peer has been asked (and agreed) to
// perform the given option (DO).
func (c *Codec) IsRemoteEnabled(opt byte) bool {
	s, ok := c.remote[opt]
	return ok && s.enabled
}

// Feed processes raw bytes from the socket, returning the decoded data
// bytes (Telnet sequences removed, CR-LF normalized to LF) and invoking
// OnCommand/OnSubnegotiation/OnUnhandled* as sequences complete. Malformed
// or truncated subnegotiations at EOF are simply dropped; Feed never
// returns an error, matching the "no exception propagates" failure mode.
func (c *Codec) Feed(input []byte) []byte {
	out := make([]byte, 0, len(input))
	for _, b := range input {
		switch c.st {
		case stateData:
			switch b {
			case IAC:
				c.st = stateIACSeen
			case '\r':
				c.st = stateNewline
			case 0x00:
				// bare NUL outside a CR,NUL pair is dropped
			default:
				out = append(out, b)
			}
		case stateNewline:
			// previous byte was CR; CR-LF and CR-NUL both normalize to LF
			switch b {
			case '\n', 0x00:
				out = append(out, '\n')
				c.st = stateData
			case '\r':
				out = append(out, '\n')
				// stay in stateNewline for a run of CRs
			case IAC:
				out = append(out, '\n')
				c.st = stateIACSeen
			default:
				out = append(out, '\n')
				out = append(out, b)
				c.st = stateData
			}
		case stateIACSeen:
			switch b {
			case IAC:
				out = append(out, IAC)
				c.st = stateData
			case DO, DONT, WILL, WONT:
				c.pendCmd = b
				c.st = stateCommandArg
			case SB:
				c.subBuf = c.subBuf[:0]
				c.st = stateSub
			default:
				if c.OnCommand != nil {
					c.OnCommand(b, 0)
				}
				c.st = stateData
			}
		case stateCommandArg:
			c.handleNegotiation(c.pendCmd, b)
			c.st = stateData
		case stateSub:
			if b == IAC {
				c.st = stateSubIAC
				continue
			}
			if len(c.subBuf) == 0 {
				c.subOpt = b
				continue
			}
			c.subBuf = append(c.subBuf, b)
		case stateSubIAC:
			switch b {
			case SE:
				c.finishSubnegotiation()
				c.st = stateData
			case IAC:
				c.subBuf = append(c.subBuf, IAC)
				c.st = stateSub
			default:
				// unexpected command inside a subnegotiation; drop the sub
				c.st = stateData
			}
		}
	}
	return out
}

func (c *Codec) finishSubnegotiation() {
	opt, payload := c.subOpt, c.subBuf
	if c.OnSubnegotiation != nil {
		c.OnSubnegotiation(opt, payload)
	}
	if !c.LocalOptions[opt] && !c.RemoteOptions[opt] && c.OnUnhandledSubnegotiation != nil {
		c.OnUnhandledSubnegotiation(opt, payload)
	}
}

// handleNegotiation implements RFC 1143 loop prevention: a reply to our own
// offer is absorbed silently, never re-triggering a counter-offer.
func (c *Codec) handleNegotiation(cmd, opt byte) {
	switch cmd {
	case WILL:
		st := c.remoteState(opt)
		if st.offered {
			st.offered = false
			st.enabled = true
			return
		}
		if c.RemoteOptions[opt] {
			st.enabled = true
			c.sendNegotiation(DO, opt)
		} else {
			c.sendNegotiation(DONT, opt)
		}
	case WONT:
		st := c.remoteState(opt)
		wasOffered := st.offered
		st.offered = false
		st.enabled = false
		if !wasOffered {
			c.sendNegotiation(DONT, opt)
		}
	case DO:
		st := c.localState(opt)
		if st.offered {
			st.offered = false
			st.enabled = true
			return
		}
		if c.LocalOptions[opt] {
			st.enabled = true
			c.sendNegotiation(WILL, opt)
		} else {
			c.sendNegotiation(WONT, opt)
		}
	case DONT:
		st := c.localState(opt)
		wasOffered := st.offered
		st.offered = false
		st.enabled = false
		if !wasOffered {
			c.sendNegotiation(WONT, opt)
		}
	}
	if !c.LocalOptions[opt] && !c.RemoteOptions[opt] && c.OnUnhandledCommand != nil {
		c.OnUnhandledCommand(cmd, opt)
	}
	if c.OnCommand != nil {
		c.OnCommand(cmd, opt)
	}
}

func (c *Codec) localState(opt byte) *optionState {
	s, ok := c.local[opt]
	if !ok {
		s = &optionState{}
		c.local[opt] = s
	}
	return s
}

func (c *Codec) remoteState(opt byte) *optionState {
	s, ok := c.remote[opt]
	if !ok {
		s = &optionState{}
		c.remote[opt] = s
	}
	return s
}

func (c *Codec) sendNegotiation(cmd, opt byte) {
	if c.Send != nil {
		c.Send(cmd, opt)
	}
}

// Offer sends WILL or DO for opt, marking it as an outstanding offer so the
// peer's reply is absorbed rather than re-offered (RFC 1143).
func (c *Codec) Offer(cmd, opt byte) {
	switch cmd {
	case WILL:
		c.localState(opt).offered = true
	case DO:
		c.remoteState(opt).offered = true
	}
	if c.Send != nil {
		c.Send(cmd, opt)
	}
}

// EncodeCommand returns the wire bytes for a bare IAC command or an
// option negotiation (opt is ignored for commands with no argument).
func EncodeCommand(cmd byte, opt ...byte) []byte {
	if len(opt) == 0 {
		return []byte{IAC, cmd}
	}
	return []byte{IAC, cmd, opt[0]}
}

// EncodeSubnegotiation frames a complete IAC SB opt payload IAC SE run,
// doubling any literal IAC byte within payload so the decoder's IAC SE
// terminator search isn't confused by binary payloads (e.g. NAWS).
func EncodeSubnegotiation(opt byte, payload []byte) []byte {
	out := make([]byte, 0, len(payload)+5)
	out = append(out, IAC, SB, opt)
	for _, b := range payload {
		if b == IAC {
			out = append(out, IAC, IAC)
			continue
		}
		out = append(out, b)
	}
	out = append(out, IAC, SE)
	return out
}

// Escape returns data with every literal IAC byte doubled and every LF
// preceded by CR (outbound normalization), per the stream pipeline's write
// contract (spec section 4.4).
func Escape(data []byte) []byte {
	out := make([]byte, 0, len(data))
	var prev byte
	for _, b := range data {
		switch b {
		case '\n':
			if prev != '\r' {
				out = append(out, '\r')
			}
			out = append(out, '\n')
		case IAC:
			out = append(out, IAC, IAC)
		default:
			out = append(out, b)
		}
		prev = b
	}
	return out
}
