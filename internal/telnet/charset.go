package telnet

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// CHARSET subnegotiation commands (RFC 2066).
const (
	CharsetRequest byte = 1
	CharsetAccept  byte = 2
	CharsetReject  byte = 3
)

// charsetOffer is the semicolon-delimited list this proxy offers when it
// requests the peer pick a charset, carried over from the teacher's option
// set since the MUD client ecosystem hasn't changed.
const charsetOffer = ";UTF-8;ISO88591;WINDOWS1252;LATIN1;MCP437;CP437;IBM437;MCP850;MCP858;ASCII;"

var charsetTable = map[string]*charmap.Charmap{
	"ASCII":            charmap.ISO8859_1,
	"LATIN1":           charmap.ISO8859_1,
	"ISO88591":         charmap.ISO8859_1,
	"ISO88592":         charmap.ISO8859_2,
	"ISO88599":         charmap.ISO8859_9,
	"ISO885915":        charmap.ISO8859_15,
	"MCP437":           charmap.CodePage437,
	"IBM437":           charmap.CodePage437,
	"CP437":            charmap.CodePage437,
	"CSPC8CODEPAGE437": charmap.CodePage437,
	"MCP850":           charmap.CodePage850,
	"MCP858":           charmap.CodePage858,
	"WINDOWS1250":      charmap.Windows1250,
	"WINDOWS1251":      charmap.Windows1251,
	"WINDOWS1252":      charmap.Windows1252,
}

// Charset negotiates and applies a CHARSET subnegotiation (RFC 2066) on top
// of a Codec, tracking the active charmap (nil means UTF-8/passthrough).
type Charset struct {
	codec     *Codec
	active    *charmap.Charmap
	name      string
	requested bool
}

// NewCharset returns a Charset for codec, starting out as UTF-8. It does
// not hook into codec's callbacks: each CHARSET payload has to be passed to
// HandleSubnegotiation by the caller.
func NewCharset(codec *Codec) *Charset {
	cs := &Charset{codec: codec, name: "UTF-8"}
	return cs
}

// Name returns the currently active charset name.
func (c *Charset) Name() string { return c.name }

// RequestPayload returns the CHARSET REQUEST payload this proxy sends when
// offering a choice of charsets to the peer.
func (c *Charset) RequestPayload() []byte {
	return append([]byte{CharsetRequest}, []byte(charsetOffer)...)
}

// HandleSubnegotiation processes one CHARSET payload, returning a reply
// payload to send back (nil if no reply is needed).
func (c *Charset) HandleSubnegotiation(payload []byte) []byte {
	if len(payload) == 0 {
		return nil
	}
	switch payload[0] {
	case CharsetRequest:
		return c.respondToRequest(payload[1:])
	case CharsetAccept:
		c.requested = false
		if len(payload) > 1 {
			c.setCharset(string(payload[1:]))
		}
	case CharsetReject:
		c.requested = false
		c.setCharset("UTF-8")
	}
	return nil
}

func (c *Charset) respondToRequest(data []byte) []byte {
	c.requested = false
	for _, option := range splitCharsetList(string(data)) {
		normalized := normalizeCharsetToken(option)
		if normalized == "" {
			continue
		}
		if normalized == "UTF8" {
			c.setCharset("UTF-8")
			return append([]byte{CharsetAccept}, []byte("UTF-8")...)
		}
		if _, ok := charsetTable[normalized]; ok {
			c.setCharset(option)
			return append([]byte{CharsetAccept}, []byte(option)...)
		}
	}
	return []byte{CharsetReject}
}

func (c *Charset) setCharset(name string) {
	normalized := normalizeCharsetToken(name)
	if normalized == "" {
		return
	}
	c.name = normalized
	if normalized == "UTF8" {
		c.active = nil
		return
	}
	if cmap, ok := charsetTable[normalized]; ok {
		c.active = cmap
		return
	}
	for key, cmap := range charsetTable {
		if strings.HasSuffix(normalized, key) {
			c.active = cmap
			return
		}
	}
}

// Encode transforms outbound bytes into the negotiated charset, passing
// through unchanged when the active charset is UTF-8.
func (c *Charset) Encode(data []byte) []byte {
	if c.active == nil || len(data) == 0 {
		return data
	}
	out := make([]byte, 0, len(data))
	for _, r := range string(data) {
		b, ok := c.active.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return out
}

// Decode transforms inbound bytes from the negotiated charset to UTF-8.
func (c *Charset) Decode(data []byte) string {
	if c.active == nil || len(data) == 0 {
		return string(data)
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = c.active.DecodeByte(b)
	}
	return string(runes)
}

func normalizeCharsetToken(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - ('a' - 'A'))
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func splitCharsetList(data string) []string {
	parts := strings.Split(data, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
