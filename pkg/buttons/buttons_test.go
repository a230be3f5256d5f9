package buttons

import "testing"

type testPin bool

func (p testPin) Get() bool { return bool(p) }

func TestQuery(t *testing.T) {
	cases := []struct {
		execute, mode bool
		want          State
	}{
		{false, true, State{Execute: Pressed, Mode: Direction}},
		{true, true, State{Execute: Released, Mode: Direction}},
		{false, false, State{Execute: Pressed, Mode: Traction}},
		{true, false, State{Execute: Released, Mode: Traction}},
	}

	for _, c := range cases {
		p := NewPanel(testPin(c.execute), testPin(c.mode))
		if got := p.Query(); got != c.want {
			t.Errorf("execute=%v mode=%v: expected %+v, got %+v", c.execute, c.mode, c.want, got)
		}
	}
}

func TestStateJSON(t *testing.T) {
	s := NewPanel(testPin(false), testPin(true)).Query()

	data, err := s.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}
	if want := `{"execute":"pressed","mode":"direction"}`; string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}

	var decoded State
	if err := decoded.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}
	if decoded != s {
		t.Errorf("expected %+v, got %+v", s, decoded)
	}
}
