package theme

import (
	"image/color"
	"math/rand"
	"testing"
)

func testPalettes(t *testing.T) (Palette, Palette) {
	t.Helper()
	dark, err := ParsePalette([]string{"#9fb6ff", "#b8c7ff"})
	if err != nil {
		t.Fatal(err)
	}
	light, err := ParsePalette([]string{"#4b5563", "#374151", "#52525b"})
	if err != nil {
		t.Fatal(err)
	}
	return dark, light
}

func TestParsePalette(t *testing.T) {
	p, err := ParsePalette([]string{"#9fb6ff"})
	if err != nil {
		t.Fatalf("ParsePalette: %v", err)
	}
	want := color.RGBA{R: 0x9f, G: 0xb6, B: 0xff, A: 255}
	if p[0] != want {
		t.Errorf("expected %v, got %v", want, p[0])
	}

	if _, err := ParsePalette(nil); err == nil {
		t.Error("expected error for empty palette")
	}
	if _, err := ParsePalette([]string{"blue"}); err == nil {
		t.Error("expected error for non-hex color")
	}
}

func TestPickDrawsFromPalette(t *testing.T) {
	dark, _ := testPalettes(t)
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		if c := dark.Pick(rng); !dark.Contains(c) {
			t.Fatalf("picked %v not in palette", c)
		}
	}
}

func TestDetectPreference(t *testing.T) {
	if DetectPreference("dark") != Dark {
		t.Error("explicit dark")
	}
	if DetectPreference("light") != Light {
		t.Error("explicit light")
	}

	t.Setenv("GTK_THEME", "Adwaita:dark")
	if DetectPreference("auto") != Dark {
		t.Error("GTK dark theme should resolve to Dark")
	}
	t.Setenv("GTK_THEME", "")
	t.Setenv("COLORFGBG", "0;15")
	if DetectPreference("auto") != Light {
		t.Error("white background should resolve to Light")
	}
	t.Setenv("COLORFGBG", "15;0")
	if DetectPreference("auto") != Dark {
		t.Error("black background should resolve to Dark")
	}
}

func TestControllerChangeNotifies(t *testing.T) {
	dark, light := testPalettes(t)
	c := NewController(dark, light, nil)

	if got := c.ResolveInitial(Dark); len(got) != len(dark) {
		t.Fatalf("expected dark palette, got %v", got)
	}

	var calls int
	var notified Palette
	c.OnChange(func(pref Preference, p Palette) {
		calls++
		notified = p
	})

	c.Change(Dark)
	if calls != 0 {
		t.Errorf("repeating the current preference should not notify")
	}

	c.Change(Light)
	if calls != 1 {
		t.Fatalf("expected one notification, got %d", calls)
	}
	if len(notified) != len(light) || c.Preference() != Light {
		t.Errorf("expected light palette to be active")
	}
	if len(c.Palette()) != len(light) {
		t.Errorf("Palette() should return the light palette")
	}

	c.Toggle()
	if c.Preference() != Dark || calls != 2 {
		t.Errorf("Toggle should switch back to dark and notify")
	}
}

func TestOnChangeCancel(t *testing.T) {
	dark, _ := ParsePalette([]string{"#000000"})
	light, _ := ParsePalette([]string{"#ffffff"})
	c := NewController(dark, light, nil)
	c.ResolveInitial(Dark)

	var first, second int
	cancel := c.OnChange(func(Preference, Palette) { first++ })
	c.OnChange(func(Preference, Palette) { second++ })

	c.Change(Light)
	cancel()
	cancel()
	c.Change(Dark)

	if first != 1 {
		t.Errorf("cancelled listener called %d times, want 1", first)
	}
	if second != 2 {
		t.Errorf("remaining listener called %d times, want 2", second)
	}
}
