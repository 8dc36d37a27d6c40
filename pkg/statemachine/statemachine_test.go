package statemachine

import "testing"

type counter struct {
	n int
}

func countUp(c *counter) StateFn[counter] {
	c.n++
	if c.n >= 3 {
		return countDone
	}
	return countUp
}

func countDone(c *counter) StateFn[counter] {
	return nil
}

func TestDispatchExecutesStateOnce(t *testing.T) {
	c := &counter{}
	sm := New(c, countUp)

	sm.Dispatch(countUp)
	if c.n != 1 {
		t.Fatalf("expected one execution, got %d", c.n)
	}
	if sm.Current() == nil {
		t.Fatal("machine terminated early")
	}
}

func TestStepRunsUntilTermination(t *testing.T) {
	c := &counter{}
	sm := New(c, countUp)

	for sm.Current() != nil {
		sm.Step()
	}
	if c.n != 3 {
		t.Fatalf("expected 3 executions before terminating, got %d", c.n)
	}
}

func TestSetStateDoesNotExecute(t *testing.T) {
	c := &counter{}
	sm := New(c, countDone)

	sm.SetState(countUp)
	if c.n != 0 {
		t.Fatalf("SetState must not run the state, got %d executions", c.n)
	}
	sm.Step()
	if c.n != 1 {
		t.Fatalf("expected 1 execution after Step, got %d", c.n)
	}
}

func TestDispatchNilTerminates(t *testing.T) {
	c := &counter{}
	sm := New(c, countUp)
	sm.Dispatch(nil)
	if sm.Current() != nil {
		t.Fatal("nil dispatch must terminate the machine")
	}
}
