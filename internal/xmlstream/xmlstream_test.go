package xmlstream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func collect(t *Tokenizer) *[]Event {
	events := &[]Event{}
	t.OnEvent = func(ev Event) { *events = append(*events, ev) }
	return events
}

func TestFeedEmitsLineEventForTopLevelText(t *testing.T) {
	tok := New()
	events := collect(tok)
	out := tok.Feed([]byte("Hello world!\n"))
	require.Equal(t, "Hello world!\n", string(out))
	require.Equal(t, []Event{{Name: EventLine, Data: []byte("Hello world!")}}, *events)
}

func TestFeedEmitsNameDescriptionExitsPromptEvents(t *testing.T) {
	tok := New()
	events := collect(tok)
	input := "<room id=\"42\" terrain=\"forest\">" +
		"<name>Lower Flet</name>\n" +
		"<description>A white platform.</description>\n" +
		"<exits>Exits: north.</exits></room>\n" +
		"<prompt>HP:100&gt;</prompt>"
	tok.Feed([]byte(input))

	var names []string
	for _, ev := range *events {
		names = append(names, ev.Name)
	}
	// the bare newline between </room> and <prompt> is top-level text (mode
	// reverts to None on </room>) and so produces its own, empty line event.
	require.Equal(t, []string{
		EventRoomAttrs, EventName, EventDescription, EventExits, EventDynamic, EventLine, EventPrompt,
	}, names)

	require.Equal(t, "42", (*events)[0].Attrs["id"])
	require.Equal(t, "forest", (*events)[0].Attrs["terrain"])
	require.Equal(t, "Lower Flet", string((*events)[1].Data))
	require.Equal(t, "A white platform.", string((*events)[2].Data))
	require.Equal(t, "Exits: north.", string((*events)[3].Data))
	require.Equal(t, "HP:100>", string((*events)[6].Data))
}

func TestDynamicEventCapturesTextBetweenDescriptionAndRoomClose(t *testing.T) {
	tok := New()
	events := collect(tok)
	input := "<room>" +
		"<description>desc</description>\n" +
		"A lamp is hanging here.\n" +
		"<exits>north.</exits>" +
		"</room>\n"
	tok.Feed([]byte(input))

	var dynamic []byte
	for _, ev := range *events {
		if ev.Name == EventDynamic {
			dynamic = ev.Data
		}
	}
	require.Equal(t, "\nA lamp is hanging here.\n", string(dynamic))
}

func TestGratuitousSuppressesDisplayButNotTokenization(t *testing.T) {
	tok := New()
	events := collect(tok)
	input := "<gratuitous><description>secret desc</description></gratuitous>after"
	out := tok.Feed([]byte(input))
	require.Equal(t, "after", string(out))
	require.Len(t, *events, 1)
	require.Equal(t, "secret desc", string((*events)[0].Data))
}

func TestRawFormatPreservesTagsAndEntitiesVerbatim(t *testing.T) {
	tok := New()
	tok.OutputFormat = FormatRaw
	input := "<name>A &amp; B</name>"
	out := tok.Feed([]byte(input))
	require.Equal(t, input, string(out))
}

func TestTintinFormatRewritesTagsToMarkers(t *testing.T) {
	tok := New()
	tok.OutputFormat = FormatTintin
	out := tok.Feed([]byte("<name>Lower Flet</name>"))
	require.Equal(t, "NAME:Lower Flet:NAME", string(out))
}

func TestMovementEventCarriesDirection(t *testing.T) {
	tok := New()
	events := collect(tok)
	tok.Feed([]byte(`<movement dir="north"/>`))
	require.Equal(t, []Event{{Name: EventMovement, Data: []byte("north")}}, *events)
}

func TestSpeechTagsEmitEventsWithoutAffectingMode(t *testing.T) {
	tok := New()
	events := collect(tok)
	out := tok.Feed([]byte("<tell>hi there</tell>\nnext line\n"))
	require.Equal(t, "hi there\nnext line\n", string(out))
	// a <tell> doesn't establish a mode, so the top-level line scanner still
	// sees its text and emits its own line event alongside the tell event.
	require.Equal(t, []Event{
		{Name: "tell", Data: []byte("hi there")},
		{Name: EventLine, Data: []byte("hi there")},
		{Name: EventLine, Data: []byte("next line")},
	}, *events)
}

func TestEntityUnescapeInDisplayStream(t *testing.T) {
	tok := New()
	out := tok.Feed([]byte("A &amp; B &lt;tag&gt;\n"))
	require.Equal(t, "A & B <tag>\n", string(out))
}

func TestUnrecognizedTagIsIgnoredSilently(t *testing.T) {
	tok := New()
	events := collect(tok)
	out := tok.Feed([]byte("<bogus>text</bogus>\n"))
	require.Equal(t, "text\n", string(out))
	// an unrecognized tag establishes no mode, so its wrapped text is still
	// top-level text and reaches the sync engine as an ordinary line event.
	require.Equal(t, []Event{{Name: EventLine, Data: []byte("text")}}, *events)
}
