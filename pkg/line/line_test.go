package line

import (
	"errors"
	"testing"
)

func TestClaim(t *testing.T) {
	r := NewRegistry()

	h, err := r.Claim(11, "button1")
	if err != nil {
		t.Fatalf("Claim returned err: %v", err)
	}
	if h.Offset() != 11 || h.Name() != "button1" {
		t.Errorf("got %v want button1(11)", h)
	}

	t.Run("twice", func(t *testing.T) {
		if _, err := r.Claim(11, "led1"); !errors.Is(err, ErrLineInUse) {
			t.Errorf("got %v want %v", err, ErrLineInUse)
		}
		if r.Claimed() != 1 {
			t.Errorf("got %d claimed want 1", r.Claimed())
		}
	})

	t.Run("other line", func(t *testing.T) {
		if _, err := r.Claim(12, "button2"); err != nil {
			t.Errorf("Claim returned err: %v", err)
		}
	})
}

func TestRelease(t *testing.T) {
	r := NewRegistry()
	h, _ := r.Claim(13, "led1")

	h.Release()
	if !h.Released() {
		t.Error("handle not released")
	}

	h2, err := r.Claim(13, "led1")
	if err != nil {
		t.Fatalf("Claim after Release returned err: %v", err)
	}
	if h2 == h {
		t.Error("released handle was reused")
	}

	// releasing the stale handle again must not free the new claim
	h.Release()
	if _, err := r.Claim(13, "led2"); !errors.Is(err, ErrLineInUse) {
		t.Errorf("got %v want %v", err, ErrLineInUse)
	}
}
