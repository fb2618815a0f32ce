package proxy

import (
	"bytes"
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mapperproxy/internal/events"
	"mapperproxy/internal/telnet"
)

// passthroughHandler is a fake pipeline.Handler standing in for the MPI
// framer and XML tokenizer so these tests exercise only the session's own
// logic, not the full protocol stack.
type passthroughHandler struct{}

func (passthroughHandler) Feed(data []byte) []byte { return data }

// fakeConn is a minimal net.Conn backed by a buffer, since these tests
// drive FeedGame/FeedPlayer directly rather than through real sockets.
type fakeConn struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (c *fakeConn) Read(p []byte) (int, error)  { return 0, nil }
func (c *fakeConn) Close() error                { return nil }
func (c *fakeConn) LocalAddr() net.Addr         { return fakeAddr{} }
func (c *fakeConn) RemoteAddr() net.Addr        { return fakeAddr{} }
func (c *fakeConn) SetDeadline(time.Time) error { return nil }
func (c *fakeConn) SetReadDeadline(time.Time) error {
	return nil
}
func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

func (c *fakeConn) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

func (c *fakeConn) Bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.buf.Bytes()...)
}

type fakeAddr struct{}

func (fakeAddr) Network() string { return "fake" }
func (fakeAddr) String() string  { return "fake" }

func newTestSession() (*Session, *fakeConn, *fakeConn) {
	playerConn := &fakeConn{}
	gameConn := &fakeConn{}
	q := events.New(8)
	s := New(playerConn, gameConn, passthroughHandler{}, passthroughHandler{}, q)
	return s, playerConn, gameConn
}

func TestFeedGameRelaysDisplayTextToPlayer(t *testing.T) {
	s, playerConn, _ := newTestSession()
	require.NoError(t, s.FeedGame([]byte("hello\n")))
	require.Equal(t, "hello\r\n", playerConn.String())
}

func TestFeedGamePromptGAWritesDefaultTerminator(t *testing.T) {
	s, playerConn, _ := newTestSession()
	require.NoError(t, s.FeedGame([]byte{telnet.IAC, telnet.GA}))
	require.Equal(t, []byte{telnet.IAC, telnet.GA}, playerConn.Bytes())
}

func TestFeedGamePromptGAWritesConfiguredCRLFTerminator(t *testing.T) {
	s, playerConn, _ := newTestSession()
	s.SetPromptTerminator(TerminatorCRLF)
	require.NoError(t, s.FeedGame([]byte{telnet.IAC, telnet.GA}))
	require.Equal(t, "\r\n", playerConn.String())
}

func TestHandshakeSendsMPIInitAndOffersCharsetAndNAWS(t *testing.T) {
	s, _, gameConn := newTestSession()
	require.NoError(t, s.Handshake(context.Background()))

	out := gameConn.Bytes()
	require.True(t, bytes.HasPrefix(out, []byte(MPIInitPrefix)))
	require.Contains(t, string(out), string([]byte{telnet.IAC, telnet.WILL, telnet.OptCharset}))
	require.Contains(t, string(out), string([]byte{telnet.IAC, telnet.WILL, telnet.OptWindowSize}))
	require.Contains(t, string(out), string(telnet.EncodeSubnegotiation(telnet.OptWindowSize, nawsPayload)))
}

func TestFeedPlayerForwardsOrdinaryLineToGame(t *testing.T) {
	s, _, gameConn := newTestSession()
	require.NoError(t, s.FeedPlayer(context.Background(), []byte("look\n")))
	require.Equal(t, "look\r\n", gameConn.String())
}

func TestFeedPlayerClassifiesMapperCommandAsEvent(t *testing.T) {
	s, _, gameConn := newTestSession()

	var mu sync.Mutex
	var got []string
	s.Events.On("userInput", func(ev events.Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, string(ev.Data))
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() { s.Events.Run(ctx); close(done) }()

	require.NoError(t, s.FeedPlayer(ctx, []byte("rdelete 5\n")))
	s.Events.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event queue did not drain")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"rdelete 5"}, got)
	require.Empty(t, gameConn.String())
}

func TestFeedPlayerEmulatingOfflineTreatsEveryLineAsEvent(t *testing.T) {
	s, _, gameConn := newTestSession()
	s.SetEmulatingOffline(true)

	var mu sync.Mutex
	var got []string
	s.Events.On("userInput", func(ev events.Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, string(ev.Data))
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() { s.Events.Run(ctx); close(done) }()

	require.NoError(t, s.FeedPlayer(ctx, []byte("look\n")))
	s.Events.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event queue did not drain")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"look"}, got)
	require.Empty(t, gameConn.String())
}

func TestFeedPlayerBuffersIncompleteLine(t *testing.T) {
	s, _, gameConn := newTestSession()
	require.NoError(t, s.FeedPlayer(context.Background(), []byte("lo")))
	require.Empty(t, gameConn.String())
	require.NoError(t, s.FeedPlayer(context.Background(), []byte("ok\n")))
	require.Equal(t, "look\r\n", gameConn.String())
}

func TestUnhandledGameNegotiationRoutesToPlayerSocket(t *testing.T) {
	// The game codec has no policy for OptEcho, so it declines with its own
	// DONT reply (written to the game socket) and separately forwards the
	// raw WILL verbatim to the player socket for full transparency.
	s, playerConn, gameConn := newTestSession()
	require.NoError(t, s.FeedGame([]byte{telnet.IAC, telnet.WILL, telnet.OptEcho}))
	require.Equal(t, []byte{telnet.IAC, telnet.WILL, telnet.OptEcho}, playerConn.Bytes())
	require.Equal(t, []byte{telnet.IAC, telnet.DONT, telnet.OptEcho}, gameConn.Bytes())
}

func TestUnhandledPlayerNegotiationRoutesToGameSocket(t *testing.T) {
	s, playerConn, gameConn := newTestSession()
	require.NoError(t, s.FeedPlayer(context.Background(), []byte{telnet.IAC, telnet.WILL, telnet.OptEcho}))
	require.Equal(t, []byte{telnet.IAC, telnet.WILL, telnet.OptEcho}, gameConn.Bytes())
	require.Equal(t, []byte{telnet.IAC, telnet.DONT, telnet.OptEcho}, playerConn.Bytes())
}

func TestRunReadersRelaysPlayerLineToGameSocket(t *testing.T) {
	playerHere, playerThere := net.Pipe()
	gameHere, gameThere := net.Pipe()
	defer playerHere.Close()
	defer playerThere.Close()
	defer gameHere.Close()
	defer gameThere.Close()
	q := events.New(8)
	s := New(playerHere, gameHere, passthroughHandler{}, passthroughHandler{}, q)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := make(chan error, 1)
	go func() { runDone <- s.RunReaders(ctx) }()

	writeDone := make(chan error, 1)
	go func() {
		_, err := playerThere.Write([]byte("look\n"))
		writeDone <- err
	}()
	select {
	case err := <-writeDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("write to player pipe never completed")
	}

	buf := make([]byte, len("look\r\n"))
	readDone := make(chan error, 1)
	go func() {
		_, err := gameThere.Read(buf)
		readDone <- err
	}()
	select {
	case err := <-readDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("game pipe never received the forwarded line")
	}
	require.Equal(t, "look\r\n", string(buf))

	cancel()
	select {
	case <-runDone:
	case <-time.After(2 * time.Second):
		t.Fatal("RunReaders did not return after context cancellation")
	}
}
