package encoder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/backmassage/wallrender/internal/config"
	"github.com/backmassage/wallrender/internal/failure"
)

func newTestSet(t *testing.T, sinks map[string]*fakeSink, depth int) *Set {
	t.Helper()
	var handles []*Handle
	for _, name := range []string{"left", "front"} {
		s := sinks[name]
		if s == nil {
			s = newFakeSink()
			sinks[name] = s
		}
		handles = append(handles, New(config.Wall{Name: name, Width: 32, Height: 32}, name+".mp4", s, depth))
	}
	return NewSet(handles...)
}

func TestSet_WriteFrameFansOut(t *testing.T) {
	sinks := map[string]*fakeSink{}
	set := newTestSet(t, sinks, 2)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := set.WriteFrame(ctx, map[string][]byte{"left": frame(i), "front": frame(i)}); err != nil {
			t.Fatal(err)
		}
	}
	statuses, err := set.Finish(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, st := range statuses {
		if !st.OK() || st.FramesWritten != 5 {
			t.Errorf("%s: %+v", st.Wall, st)
		}
	}
	if set.Len() != 2 || statuses[0].Wall != "left" || statuses[1].Wall != "front" {
		t.Errorf("statuses not in wall order: %+v", statuses)
	}
}

func TestSet_WriteFrameRequiresEveryWall(t *testing.T) {
	set := newTestSet(t, map[string]*fakeSink{}, 2)
	defer set.Terminate(time.Second)
	err := set.WriteFrame(context.Background(), map[string][]byte{"left": frame(0)})
	if err == nil {
		t.Fatal("expected error for missing wall frame")
	}
	for _, h := range set.Handles() {
		if h.Status().FramesAccepted != 0 {
			t.Errorf("%s accepted a frame from an incomplete set", h.Name())
		}
	}
}

func TestSet_BackpressureIsPerWall(t *testing.T) {
	busy := newFakeSink()
	busy.busy = make(chan struct{})
	sinks := map[string]*fakeSink{"left": busy}
	set := newTestSet(t, sinks, 1)
	defer set.Terminate(time.Second)

	var err error
	for i := 0; i < 10 && err == nil; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		err = set.WriteFrame(ctx, map[string][]byte{"left": frame(i), "front": frame(i)})
		cancel()
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want the busy wall to block until the deadline", err)
	}
	left := set.Handles()[0].Status()
	front := set.Handles()[1].Status()
	if front.FramesAccepted != left.FramesAccepted+1 {
		t.Errorf("front accepted %d, left %d: the free wall should take the blocked frame", front.FramesAccepted, left.FramesAccepted)
	}
	deadline := time.Now().Add(2 * time.Second)
	for len(sinks["front"].received()) != front.FramesAccepted && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := len(sinks["front"].received()); got != front.FramesAccepted {
		t.Errorf("front sink got %d frames, accepted %d", got, front.FramesAccepted)
	}
}

func TestSet_FinishReportsFailure(t *testing.T) {
	bad := newFakeSink()
	bad.ignoreEOF = true
	go func() {
		<-bad.closed
		bad.exit(errors.New("exit status 1"))
	}()
	set := newTestSet(t, map[string]*fakeSink{"front": bad}, 2)
	statuses, err := set.Finish(context.Background())
	if !errors.Is(err, failure.EncodeFailure) {
		t.Fatalf("err = %v", err)
	}
	if !statuses[0].OK() || statuses[1].OK() {
		t.Errorf("statuses = %+v", statuses)
	}
	if m := set.Statuses(); m["front"].OK() || !m["left"].OK() {
		t.Errorf("Statuses() = %+v", m)
	}
}

func TestSet_TerminateAll(t *testing.T) {
	sinks := map[string]*fakeSink{}
	set := newTestSet(t, sinks, 2)
	for _, st := range set.Terminate(time.Second) {
		if st.State != Finished || !st.Terminated {
			t.Errorf("%s: %+v", st.Wall, st)
		}
	}
}
