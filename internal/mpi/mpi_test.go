package mpi

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeTask struct {
	mu       sync.Mutex
	edited   []byte
	editOK   bool
	editErr  error
	viewed   [][]byte
	viewErr  error
	sawEdit  []byte
}

func (f *fakeTask) Edit(ctx context.Context, body []byte) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sawEdit = append([]byte(nil), body...)
	return f.edited, f.editOK, f.editErr
}

func (f *fakeTask) View(ctx context.Context, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.viewed = append(f.viewed, append([]byte(nil), body...))
	return f.viewErr
}

func mpiFrame(cmd byte, body string) []byte {
	return []byte(fmt.Sprintf("%s%c%d\n%s", Magic, cmd, len(body), body))
}

func TestFeedPassesThroughPlainText(t *testing.T) {
	f := New(context.Background(), &fakeTask{})
	out := append(f.Feed([]byte("hello world\n")), f.Flush()...)
	require.Equal(t, "hello world\n", string(out))
}

func TestFeedRecognizesViewBlockByteBudget(t *testing.T) {
	task := &fakeTask{}
	f := New(context.Background(), task)
	before := []byte("prefix\n")
	body := "room description text"
	frame := mpiFrame(CommandView, body)
	input := append(append([]byte(nil), before...), frame...)
	input = append(input, []byte("\nafter")...)

	out := f.Feed(input)
	// the view block, plus the line feed that introduced it, is removed
	// entirely from the data stream; only the surrounding text survives.
	require.Equal(t, "prefix\nafter", string(out))
	require.Equal(t, len(frame), len(Magic)+1+len(fmt.Sprintf("%d", len(body)))+1+len(body))

	waitFor(t, func() bool {
		task.mu.Lock()
		defer task.mu.Unlock()
		return len(task.viewed) == 1
	})
	require.Equal(t, body, string(task.viewed[0]))
}

func TestFeedOnlyMatchesMagicAtLineStart(t *testing.T) {
	f := New(context.Background(), &fakeTask{})
	out := append(f.Feed([]byte("not at start ~$#EV1\n0\n")), f.Flush()...)
	require.Equal(t, "not at start ~$#EV1\n0\n", string(out))
}

func TestFeedReemitsOnMagicMismatch(t *testing.T) {
	f := New(context.Background(), &fakeTask{})
	out := append(f.Feed([]byte("line\n~$Xrest\n")), f.Flush()...)
	require.Equal(t, "line\n~$Xrest\n", string(out))
}

func TestFeedReemitsOnInvalidCommand(t *testing.T) {
	f := New(context.Background(), &fakeTask{})
	out := append(f.Feed([]byte("line\n"+Magic+"Zrest\n")), f.Flush()...)
	require.Equal(t, "line\n"+Magic+"Zrest\n", string(out))
}

func TestFeedReemitsOnInvalidLength(t *testing.T) {
	f := New(context.Background(), &fakeTask{})
	out := append(f.Feed([]byte("line\n"+Magic+"Vabc\nrest\n")), f.Flush()...)
	require.Equal(t, "line\n"+Magic+"Vabc\nrest\n", string(out))
}

func TestFeedDispatchesEditAndRepliesOnSuccess(t *testing.T) {
	task := &fakeTask{edited: []byte("new body"), editOK: true}
	f := New(context.Background(), task)
	var reply []byte
	done := make(chan struct{})
	f.ReplyUpstream = func(frame []byte) {
		reply = frame
		close(done)
	}
	payload := "session1\ndescription\noriginal body"
	f.Feed(mpiFrame(CommandEdit, payload))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for edit reply")
	}
	require.Equal(t, "original body", string(task.sawEdit))
	require.Contains(t, string(reply), "Esession1\nnew body")
	requireLenPrefixMatchesFrame(t, reply)
}

func TestFeedDispatchesEditAndRepliesOnCancel(t *testing.T) {
	task := &fakeTask{editOK: false}
	f := New(context.Background(), task)
	var reply []byte
	done := make(chan struct{})
	f.ReplyUpstream = func(frame []byte) {
		reply = frame
		close(done)
	}
	payload := "session2\ndescription\nbody"
	f.Feed(mpiFrame(CommandEdit, payload))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cancel reply")
	}
	require.Contains(t, string(reply), "Csession2")
	requireLenPrefixMatchesFrame(t, reply)
}

// requireLenPrefixMatchesFrame checks that a reply frame's <len> field
// equals the number of bytes actually following the length-terminating LF,
// including the reply's own trailing LF.
func requireLenPrefixMatchesFrame(t *testing.T, frame []byte) {
	t.Helper()
	prefix := Magic + "E"
	require.True(t, len(frame) > len(prefix), "frame too short: %q", frame)
	rest := frame[len(prefix):]
	nl := indexByte(rest, '\n')
	require.GreaterOrEqual(t, nl, 0, "missing length-terminating LF in %q", frame)
	n, err := strconv.Atoi(string(rest[:nl]))
	require.NoError(t, err)
	require.Equal(t, n, len(rest[nl+1:]), "declared <len> does not match actual trailing bytes")
	require.Equal(t, byte('\n'), rest[len(rest)-1], "reply must end with LF")
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}
