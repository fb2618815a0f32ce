// Package xmlstream implements the inline XML-style tag tokenizer that sits
// after the MPI framer on the inbound direction: it splits the byte stream
// into tags and text runs, tracks which room field the current text belongs
// to, and emits typed events for the sync engine while producing a display
// transform (plain, tintin-marker, or raw passthrough) for the player.
package xmlstream

import (
	"regexp"
	"strings"
)

// Event names emitted on the event channel.
const (
	EventName        = "name"
	EventDescription = "description"
	EventTerrain     = "terrain"
	EventExits       = "exits"
	EventPrompt      = "prompt"
	EventDynamic     = "dynamic"
	EventLine        = "line"
	EventMovement    = "movement"
	EventRoomAttrs   = "room_attrs"
)

// OutputFormat selects how tags are rendered into the display stream.
type OutputFormat int

const (
	FormatPlain OutputFormat = iota
	FormatTintin
	FormatRaw
)

// Event is one typed fact the tokenizer hands to the sync engine.
type Event struct {
	Name string
	Data []byte
	// Attrs carries the <room id="..." area="..." terrain="..."> attributes
	// for an EventRoomAttrs event; nil for every other event name.
	Attrs map[string]string
}

type state int

const (
	stateText state = iota
	stateTag
)

// mode tracks which inline field is currently open, mirroring the closing-
// tag table in the tokenizer's grounding source.
type mode string

const (
	modeNone        mode = ""
	modeRoom        mode = "room"
	modeName        mode = "name"
	modeDescription mode = "description"
	modeTerrain     mode = "terrain"
	modeExits       mode = "exits"
	modePrompt      mode = "prompt"
)

var closingModeOf = map[mode]mode{
	modeName:        modeRoom,
	modeDescription: modeRoom,
	modeTerrain:     modeRoom,
	modeExits:       modeNone,
	modePrompt:      modeNone,
	modeRoom:        modeNone,
}

// tintinMarkers rewrites a tag into the textual marker tintin-style clients
// expect in place of the XML tag itself.
var tintinMarkers = map[string]string{
	"prompt":      "PROMPT:",
	"/prompt":     ":PROMPT",
	"name":        "NAME:",
	"/name":       ":NAME",
	"tell":        "TELL:",
	"/tell":       ":TELL",
	"narrate":     "NARRATE:",
	"/narrate":    ":NARRATE",
	"pray":        "PRAY:",
	"/pray":       ":PRAY",
	"say":         "SAY:",
	"/say":        ":SAY",
	"emote":       "EMOTE:",
	"/emote":      ":EMOTE",
}

// speechTags are simple wrapper tags that never change mode: their closing
// tag just emits an event carrying whatever text accumulated since the
// opening tag.
var speechTags = map[string]bool{
	"tell": true, "narrate": true, "pray": true, "say": true, "emote": true,
}

var attrPattern = regexp.MustCompile(`(\w+)\s*=\s*"([^"]*)"`)

var entityUnescape = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&")

// Tokenizer drives the TEXT/TAG state machine. It is not safe for
// concurrent use.
type Tokenizer struct {
	st state

	tagBuf   []byte
	fieldBuf []byte // text accumulated since the most recently opened field tag
	dynBuf   []byte // room-mode text outside any field tag, accumulated since <room>
	lineBuf  []byte // current top-level (mode==None) line, for "line" events

	mode         mode
	inGratuitous bool
	inSpeech     bool   // inside <tell>/<say>/<narrate>/<pray>/<emote>
	entPending   []byte // bytes of a possible &entity; match collected so far

	OutputFormat OutputFormat

	// OnEvent fires for every completed tag/line event. It may be nil.
	OnEvent func(Event)
}

// New returns a ready-to-feed Tokenizer.
func New() *Tokenizer {
	return &Tokenizer{}
}

// Feed processes bytes already stripped of Telnet and MPI framing,
// returning the display-stream bytes (entity-unescaped, gratuitous text
// suppressed, tags rewritten per OutputFormat).
func (t *Tokenizer) Feed(input []byte) []byte {
	out := make([]byte, 0, len(input))
	for _, b := range input {
		switch t.st {
		case stateText:
			out = t.feedText(out, b)
		case stateTag:
			out = t.feedTag(out, b)
		}
	}
	return out
}

func (t *Tokenizer) feedText(out []byte, b byte) []byte {
	if b == '<' {
		out = t.flushPendingEntityLiteral(out)
		t.st = stateTag
		t.tagBuf = t.tagBuf[:0]
		return out
	}
	t.accumulate(b)
	if t.mode == modeNone {
		if b == '\n' {
			line := entityUnescape.Replace(string(t.lineBuf))
			t.lineBuf = t.lineBuf[:0]
			t.emit(Event{Name: EventLine, Data: []byte(line)})
		} else {
			t.lineBuf = append(t.lineBuf, b)
		}
	}
	return t.feedDisplayByte(out, b)
}

// entityCandidates are the only entities the wire format ever uses.
var entityCandidates = []string{"&amp;", "&lt;", "&gt;"}

func matchEntity(s string) (byte, bool) {
	switch s {
	case "&amp;":
		return '&', true
	case "&lt;":
		return '<', true
	case "&gt;":
		return '>', true
	}
	return 0, false
}

func isEntityPrefix(s string) bool {
	for _, e := range entityCandidates {
		if strings.HasPrefix(e, s) {
			return true
		}
	}
	return false
}

// appendDisplay appends b to out unless gratuitous text is being suppressed.
func (t *Tokenizer) appendDisplay(out []byte, b byte) []byte {
	if t.inGratuitous {
		return out
	}
	return append(out, b)
}

// flushPendingEntityLiteral flushes an in-progress, never-completed &entity;
// match as literal bytes, used when a '<' interrupts it.
func (t *Tokenizer) flushPendingEntityLiteral(out []byte) []byte {
	for _, pb := range t.entPending {
		out = t.appendDisplay(out, pb)
	}
	t.entPending = t.entPending[:0]
	return out
}

// feedDisplayByte decodes &amp;/&lt;/&gt; entities and applies gratuitous
// suppression for the display stream. In raw format, bytes pass through
// completely unchanged (entities included), per the source-fidelity
// guarantee raw format makes.
func (t *Tokenizer) feedDisplayByte(out []byte, b byte) []byte {
	if t.OutputFormat == FormatRaw {
		return append(out, b)
	}
	if len(t.entPending) > 0 || b == '&' {
		t.entPending = append(t.entPending, b)
		if decoded, ok := matchEntity(string(t.entPending)); ok {
			t.entPending = t.entPending[:0]
			return t.appendDisplay(out, decoded)
		}
		if isEntityPrefix(string(t.entPending)) {
			return out
		}
		return t.flushPendingEntityLiteral(out)
	}
	return t.appendDisplay(out, b)
}

// accumulate routes a text byte into whichever buffer represents "text
// accumulated since the current tag opened".
func (t *Tokenizer) accumulate(b byte) {
	if t.inSpeech {
		t.fieldBuf = append(t.fieldBuf, b)
		return
	}
	switch t.mode {
	case modeName, modeDescription, modeTerrain, modeExits, modePrompt:
		t.fieldBuf = append(t.fieldBuf, b)
	case modeRoom:
		t.dynBuf = append(t.dynBuf, b)
	}
}

func (t *Tokenizer) feedTag(out []byte, b byte) []byte {
	if b != '>' {
		t.tagBuf = append(t.tagBuf, b)
		return out
	}
	raw := string(t.tagBuf)
	t.tagBuf = t.tagBuf[:0]
	t.st = stateText

	switch t.OutputFormat {
	case FormatRaw:
		out = append(out, '<')
		out = append(out, []byte(raw)...)
		out = append(out, '>')
	case FormatTintin:
		if !t.inGratuitous {
			if marker, ok := tintinMarkers[normalizeTagKey(raw)]; ok {
				out = append(out, []byte(marker)...)
			}
		}
	}

	t.handleTag(raw)
	return out
}

func normalizeTagKey(raw string) string {
	name, _ := splitTagNameAttrs(raw)
	return name
}

func splitTagNameAttrs(raw string) (name, attrs string) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(raw), "/")
	trimmed = strings.TrimSpace(trimmed)
	idx := strings.IndexAny(trimmed, " \t")
	if idx < 0 {
		return trimmed, ""
	}
	return trimmed[:idx], trimmed[idx+1:]
}

func parseAttrs(attrs string) map[string]string {
	matches := attrPattern.FindAllStringSubmatch(attrs, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make(map[string]string, len(matches))
	for _, m := range matches {
		out[m[1]] = m[2]
	}
	return out
}

func (t *Tokenizer) handleTag(raw string) {
	name, attrs := splitTagNameAttrs(raw)
	lower := strings.ToLower(name)

	switch lower {
	case "movement":
		dir := parseAttrs(attrs)["dir"]
		t.emit(Event{Name: EventMovement, Data: []byte(dir)})
		return
	case "gratuitous":
		t.inGratuitous = true
		return
	case "/gratuitous":
		t.inGratuitous = false
		return
	}

	if speechTags[lower] {
		t.inSpeech = true
		t.fieldBuf = t.fieldBuf[:0]
		return
	}
	if strings.HasPrefix(lower, "/") && speechTags[lower[1:]] {
		t.inSpeech = false
		t.emit(Event{Name: lower[1:], Data: fieldText(t.fieldBuf)})
		t.fieldBuf = t.fieldBuf[:0]
		return
	}

	closing := strings.HasPrefix(lower, "/")
	bare := strings.TrimPrefix(lower, "/")
	m := mode(bare)
	if _, known := closingModeOf[m]; !known {
		return
	}

	if !closing {
		switch m {
		case modeRoom:
			t.mode = modeRoom
			t.dynBuf = t.dynBuf[:0]
			if attrs != "" {
				t.emit(Event{Name: EventRoomAttrs, Attrs: parseAttrs(attrs)})
			}
		default:
			t.mode = m
			t.fieldBuf = t.fieldBuf[:0]
		}
		return
	}

	// closing tag
	if m == modeRoom {
		t.emit(Event{Name: EventDynamic, Data: fieldText(t.dynBuf)})
		t.dynBuf = t.dynBuf[:0]
		t.mode = modeNone
		return
	}
	text := fieldText(t.fieldBuf)
	t.fieldBuf = t.fieldBuf[:0]
	t.emit(Event{Name: string(m), Data: text})
	t.mode = closingModeOf[m]
}

func fieldText(buf []byte) []byte {
	return []byte(entityUnescape.Replace(string(buf)))
}

func (t *Tokenizer) emit(ev Event) {
	if t.OnEvent != nil {
		t.OnEvent(ev)
	}
}
