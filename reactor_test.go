package reactor

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// waitForRunning spins briefly until r.Run has actually started the
// dispatch loop, mirroring the teacher's waitForRunning test helper.
func waitForRunning(t *testing.T, r *Reactor) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !r.running.Load() {
		if time.Now().After(deadline) {
			t.Fatal("reactor never started running")
		}
		time.Sleep(time.Millisecond)
	}
}

// runReactor starts r.Run in the background. All reactor setup that isn't
// safe from a foreign goroutine (RegisterTimer, RegisterFd, ...) must
// happen before calling this, matching the single-goroutine-ownership
// contract documented on Reactor.
func runReactor(t *testing.T, r *Reactor) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- r.Run() }()
	waitForRunning(t, r)
	return done
}

func TestReactor_RunEnd(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer r.Close()

	done := runReactor(t, r)
	r.End()
	require.NoError(t, <-done)
	require.False(t, r.running.Load())
}

func TestReactor_RunAlreadyRunning(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer r.Close()

	done := runReactor(t, r)
	defer func() {
		r.End()
		<-done
	}()

	require.ErrorIs(t, r.Run(), ErrReactorAlreadyRunning)
}

func TestReactor_RegisterTimerFires(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer r.Close()

	fired := make(chan Timestamp, 1)
	r.RegisterTimer(func(now Timestamp) Timestamp {
		fired <- now
		r.End()
		return Never
	}, Now, "fire-once")

	done := runReactor(t, r)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
	require.NoError(t, <-done)
}

func TestReactor_TimerOrderingBySeq(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer r.Close()

	var order []int
	complete := make(chan struct{})

	waketime := Now
	for i := 0; i < 3; i++ {
		i := i
		r.RegisterTimer(func(now Timestamp) Timestamp {
			order = append(order, i)
			if len(order) == 3 {
				close(complete)
			}
			return Never
		}, waketime, "ordered")
	}

	done := runReactor(t, r)

	select {
	case <-complete:
	case <-time.After(time.Second):
		t.Fatal("timers never all fired")
	}
	r.End()
	require.NoError(t, <-done)
	require.Equal(t, []int{0, 1, 2}, order)
}

func TestReactor_UpdateTimerReschedule(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer r.Close()

	fired := make(chan Timestamp, 1)
	timer := r.RegisterTimer(func(now Timestamp) Timestamp {
		fired <- now
		return Never
	}, Never, "deferred")

	done := runReactor(t, r)

	r.RegisterAsyncCallback(func(now Timestamp) any {
		r.UpdateTimer(timer, Now)
		return nil
	}, Now)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("rescheduled timer never fired")
	}
	r.End()
	require.NoError(t, <-done)
}

func TestReactor_UnregisterTimerPreventsFiring(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer r.Close()

	fired := false
	timer := r.RegisterTimer(func(now Timestamp) Timestamp {
		fired = true
		return Never
	}, r.Now()+0.2, "cancelled")
	r.UnregisterTimer(timer)

	guard := make(chan struct{})
	r.RegisterTimer(func(now Timestamp) Timestamp {
		close(guard)
		return Never
	}, r.Now()+0.3, "guard")

	done := runReactor(t, r)

	select {
	case <-guard:
	case <-time.After(time.Second):
		t.Fatal("guard timer never fired")
	}
	require.False(t, fired)
	r.End()
	require.NoError(t, <-done)
}

func TestReactor_FdRegistrationRoundTrip(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer r.Close()

	pr, pw, err := os.Pipe()
	require.NoError(t, err)
	defer pr.Close()
	defer pw.Close()

	ready := make(chan struct{})
	handle, err := r.RegisterFd(int(pr.Fd()), func(now Timestamp) {
		var buf [1]byte
		pr.Read(buf[:])
		close(ready)
	})
	require.NoError(t, err)

	_, err = r.RegisterFd(int(pr.Fd()), func(Timestamp) {})
	require.ErrorIs(t, err, ErrFDAlreadyRegistered)

	done := runReactor(t, r)

	pw.Write([]byte{1})

	select {
	case <-ready:
	case <-time.After(time.Second):
		t.Fatal("fd callback never ran")
	}

	unregistered := make(chan error, 1)
	r.RegisterAsyncCallback(func(now Timestamp) any {
		unregistered <- r.UnregisterFd(handle)
		return nil
	}, Now)
	require.NoError(t, <-unregistered)

	r.End()
	require.NoError(t, <-done)
}

func TestReactor_CallbackCompletion(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer r.Close()

	result := make(chan any, 1)
	r.RegisterTimer(func(now Timestamp) Timestamp {
		cb := r.RegisterCallback(func(now Timestamp) any {
			return 42
		}, Now)
		result <- cb.Completion().Wait(Never, nil)
		return Never
	}, Now, "await-callback")

	done := runReactor(t, r)

	select {
	case v := <-result:
		require.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("callback completion never resolved")
	}
	r.End()
	require.NoError(t, <-done)
}
