package telnet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCharsetRequestAcceptsUTF8(t *testing.T) {
	cs := NewCharset(New())
	reply := cs.HandleSubnegotiation(append([]byte{CharsetRequest}, []byte(";UTF-8;ASCII;")...))
	require.Equal(t, append([]byte{CharsetAccept}, []byte("UTF-8")...), reply)
	require.Equal(t, "UTF8", cs.Name())
}

func TestCharsetRequestFallsBackToKnownCodepage(t *testing.T) {
	cs := NewCharset(New())
	reply := cs.HandleSubnegotiation(append([]byte{CharsetRequest}, []byte(";CP437;WINDOWS1252;")...))
	require.Equal(t, append([]byte{CharsetAccept}, []byte("CP437")...), reply)
	require.Equal(t, "CP437", cs.Name())
}

func TestCharsetRequestRejectsUnknownList(t *testing.T) {
	cs := NewCharset(New())
	reply := cs.HandleSubnegotiation(append([]byte{CharsetRequest}, []byte(";KOI8-R;")...))
	require.Equal(t, []byte{CharsetReject}, reply)
}

func TestCharsetAcceptSwitchesActiveCodepage(t *testing.T) {
	cs := NewCharset(New())
	cs.HandleSubnegotiation(append([]byte{CharsetAccept}, []byte("WINDOWS1252")...))
	require.Equal(t, "WINDOWS1252", cs.Name())

	encoded := cs.Encode([]byte("café"))
	decoded := cs.Decode(encoded)
	require.Equal(t, "café", decoded)
}

func TestCharsetRejectResetsToUTF8(t *testing.T) {
	cs := NewCharset(New())
	cs.HandleSubnegotiation(append([]byte{CharsetAccept}, []byte("WINDOWS1252")...))
	cs.HandleSubnegotiation([]byte{CharsetReject})
	require.Equal(t, "UTF8", cs.Name())
	require.Equal(t, []byte("plain"), cs.Encode([]byte("plain")))
}
