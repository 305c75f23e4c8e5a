package reactor

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoller_WaitReportsReadyFd(t *testing.T) {
	p, err := newPoller()
	require.NoError(t, err)
	defer p.close()

	pr, pw, err := os.Pipe()
	require.NoError(t, err)
	defer pr.Close()
	defer pw.Close()

	require.NoError(t, p.add(int(pr.Fd())))

	ready, err := p.wait(nil, 50*time.Millisecond)
	require.NoError(t, err)
	require.Empty(t, ready)

	_, err = pw.Write([]byte{1})
	require.NoError(t, err)

	ready, err = p.wait(nil, time.Second)
	require.NoError(t, err)
	require.Equal(t, []int{int(pr.Fd())}, ready)
}

func TestPoller_RemoveStopsWatching(t *testing.T) {
	p, err := newPoller()
	require.NoError(t, err)
	defer p.close()

	pr, pw, err := os.Pipe()
	require.NoError(t, err)
	defer pr.Close()
	defer pw.Close()

	require.NoError(t, p.add(int(pr.Fd())))
	require.NoError(t, p.remove(int(pr.Fd())))

	_, err = pw.Write([]byte{1})
	require.NoError(t, err)

	ready, err := p.wait(nil, 50*time.Millisecond)
	require.NoError(t, err)
	require.Empty(t, ready)
}

func TestPoller_LevelTriggeredUntilDrained(t *testing.T) {
	p, err := newPoller()
	require.NoError(t, err)
	defer p.close()

	pr, pw, err := os.Pipe()
	require.NoError(t, err)
	defer pr.Close()
	defer pw.Close()

	require.NoError(t, p.add(int(pr.Fd())))
	_, err = pw.Write([]byte{1})
	require.NoError(t, err)

	ready, err := p.wait(nil, time.Second)
	require.NoError(t, err)
	require.Equal(t, []int{int(pr.Fd())}, ready)

	// Still readable: the byte was never read off the pipe.
	ready, err = p.wait(nil, time.Second)
	require.NoError(t, err)
	require.Equal(t, []int{int(pr.Fd())}, ready)

	var buf [1]byte
	_, err = pr.Read(buf[:])
	require.NoError(t, err)

	ready, err = p.wait(nil, 50*time.Millisecond)
	require.NoError(t, err)
	require.Empty(t, ready)
}
