package pipeline

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"mapperproxy/internal/telnet"
)

type upperHandler struct{}

func (upperHandler) Feed(data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		if b >= 'a' && b <= 'z' {
			b -= 'a' - 'A'
		}
		out[i] = b
	}
	return out
}

func TestManagerChainsHandlersInOrder(t *testing.T) {
	codec := telnet.New()
	m := NewInbound(codec, upperHandler{})
	out := m.Feed([]byte("hello"))
	require.Equal(t, "HELLO", string(out))
}

func TestOutboundManagerIsTelnetOnly(t *testing.T) {
	codec := telnet.New()
	m := NewOutbound(codec)
	out := m.Feed([]byte{'a', telnet.IAC, telnet.IAC, 'b'})
	require.Equal(t, []byte{'a', telnet.IAC, 'b'}, out)
	require.Same(t, codec, m.Telnet)
}

func TestWriteEscapesIACAndNormalizesNewlines(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	err := w.Write([]byte("line1\nline2"), true)
	require.NoError(t, err)
	require.Equal(t, "line1\r\nline2", buf.String())
}

func TestWriteWithoutEscapeSendsBytesVerbatim(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Write([]byte{telnet.IAC, telnet.GA}, false))
	require.Equal(t, []byte{telnet.IAC, telnet.GA}, buf.Bytes())
}

func TestWriteCommandFramesIACCommand(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteCommand(telnet.GA))
	require.Equal(t, []byte{telnet.IAC, telnet.GA}, buf.Bytes())
}

func TestWritePromptTerminatorDefaultsToIACGA(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WritePromptTerminator(TerminatorIACGA))
	require.Equal(t, []byte{telnet.IAC, telnet.GA}, buf.Bytes())
}

func TestWritePromptTerminatorCRLF(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WritePromptTerminator(TerminatorCRLF))
	require.Equal(t, "\r\n", buf.String())
}

func TestWriteSubnegotiationFramesPayload(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteSubnegotiation(telnet.OptCharset, []byte{2, 'U', 'T', 'F', '8'}))
	require.Equal(t, telnet.EncodeSubnegotiation(telnet.OptCharset, []byte{2, 'U', 'T', 'F', '8'}), buf.Bytes())
}
