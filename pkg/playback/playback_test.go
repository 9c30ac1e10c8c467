package playback

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func windows(metric string) (int, int, bool) {
	switch metric {
	case "gdp":
		return 2010, 2020, true
	case "population":
		return 2000, 2020, true
	}
	return 0, 0, false
}

func TestTickToWindowEnd(t *testing.T) {
	var rendered []int
	c := NewController(2015, "gdp", windows, func(y int) { rendered = append(rendered, y) })
	c.Start()

	for i := 0; i < 5; i++ {
		if r := c.Tick(); !r.Rendered || r.Stopped {
			t.Fatalf("tick %d = %+v, want render", i+1, r)
		}
	}
	if c.Year() != 2020 {
		t.Errorf("Year after 5 ticks = %d, want 2020", c.Year())
	}

	r := c.Tick()
	if !r.Stopped || r.Rendered || c.State() != Stopped {
		t.Errorf("6th tick = %+v state %v, want auto-stop", r, c.State())
	}
	if c.Year() != 2020 {
		t.Errorf("Year = %d, want 2020", c.Year())
	}

	if r := c.Tick(); r.Rendered || r.Stopped {
		t.Errorf("7th tick = %+v, want nothing", r)
	}
	if want := []int{2015, 2016, 2017, 2018, 2019}; len(rendered) != len(want) {
		t.Errorf("rendered = %v, want %v", rendered, want)
	}
}

func TestStartResetsYearOutsideWindow(t *testing.T) {
	c := NewController(2005, "population", windows, nil)
	c.SetMetric("gdp")
	if c.Year() != 2005 {
		t.Errorf("SetMetric changed the year to %d", c.Year())
	}
	c.Start()
	if c.Year() != 2010 {
		t.Errorf("Year after Start = %d, want window start 2010", c.Year())
	}

	c = NewController(2020, "gdp", windows, nil)
	c.Start()
	if c.Year() != 2020 {
		t.Errorf("Year = %d, want 2020 (inside window)", c.Year())
	}
}

func TestStartIsNotReentrant(t *testing.T) {
	c := NewController(2012, "gdp", windows, nil)
	if !c.Start() {
		t.Error("first Start should change state")
	}
	c.SetYear(2001)
	if c.Start() {
		t.Error("Start while playing should be a no-op")
	}
	if c.Year() != 2001 {
		t.Errorf("Start while playing reset the year to %d", c.Year())
	}
}

func TestToggle(t *testing.T) {
	c := NewController(2012, "gdp", windows, nil)
	if s := c.Toggle(); s != Playing {
		t.Errorf("Toggle = %v, want playing", s)
	}
	if s := c.Toggle(); s != Stopped {
		t.Errorf("Toggle = %v, want stopped", s)
	}
	if c.Stop() {
		t.Error("Stop while stopped should report no change")
	}
}

func TestTimerRunsUntilFalse(t *testing.T) {
	var calls atomic.Int32
	done := make(chan struct{})
	tm := NewTimer(time.Millisecond)
	tm.Start(context.Background(), func() bool {
		if calls.Add(1) == 3 {
			close(done)
			return false
		}
		return true
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timer did not fire")
	}
	deadline := time.Now().Add(5 * time.Second)
	for tm.Running() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if tm.Running() {
		t.Error("timer still running after fn returned false")
	}
	time.Sleep(10 * time.Millisecond)
	if n := calls.Load(); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

func TestTimerStop(t *testing.T) {
	tm := NewTimer(time.Millisecond)
	fired := make(chan struct{}, 1)
	if !tm.Start(context.Background(), func() bool {
		select {
		case fired <- struct{}{}:
		default:
		}
		return true
	}) {
		t.Fatal("Start returned false")
	}
	if tm.Start(context.Background(), func() bool { return true }) {
		t.Error("second Start should be a no-op")
	}
	<-fired
	tm.Stop()
	if tm.Running() {
		t.Error("Running after Stop")
	}
	if !tm.Start(context.Background(), func() bool { return false }) {
		t.Error("Start after Stop should succeed")
	}
	tm.Stop()
}

func TestTimerParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tm := NewTimer(time.Hour)
	tm.Start(ctx, func() bool { return true })
	cancel()

	deadline := time.Now().Add(5 * time.Second)
	for tm.Running() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if tm.Running() {
		t.Error("timer survived parent cancellation")
	}
}
