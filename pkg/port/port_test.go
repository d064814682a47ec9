package port

import "testing"

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"high", High, false},
		{" HIGH ", High, false},
		{"1", High, false},
		{"on", High, false},
		{"low", Low, false},
		{"0", Low, false},
		{"off", Low, false},
		{"middle", Low, true},
		{"", Low, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLevel(t *testing.T) {
	if High.Invert() != Low || Low.Invert() != High {
		t.Error("Invert failed")
	}
	if High.Int() != 1 || Low.Int() != 0 {
		t.Error("Int failed")
	}
	if LevelOf(true) != High || LevelOf(false) != Low {
		t.Error("LevelOf failed")
	}

	b, _ := High.MarshalText()
	if string(b) != "high" {
		t.Errorf("got %s want high", b)
	}

	var l Level
	if err := l.UnmarshalText([]byte("on")); err != nil || l != High {
		t.Errorf("got %v, %v want high", l, err)
	}
	if err := l.UnmarshalText([]byte("up")); err != ErrInvalidLevel {
		t.Errorf("got %v want %v", err, ErrInvalidLevel)
	}
}

func TestEdgeLevel(t *testing.T) {
	if RisingEdge.Level() != High {
		t.Error("rising edge must end high")
	}
	if FallingEdge.Level() != Low {
		t.Error("falling edge must end low")
	}
	if EdgeTo(High) != RisingEdge || EdgeTo(Low) != FallingEdge {
		t.Error("EdgeTo failed")
	}
}

func TestParsePull(t *testing.T) {
	for in, want := range map[string]Pull{"": PullNone, "none": PullNone, "up": PullUp, "pulldown": PullDown} {
		got, err := ParsePull(in)
		if err != nil {
			t.Errorf("ParsePull(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParsePull(%q) = %v want %v", in, got, want)
		}
	}

	if _, err := ParsePull("sideways"); err != ErrInvalidPull {
		t.Errorf("got %v want %v", err, ErrInvalidPull)
	}
}
