package emuios

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeSPC(t *testing.T) string {
	t.Helper()
	data := make([]byte, 0x10200)
	copy(data, "SNES-SPC700 Sound File Data v0.30")
	data[0x21] = 0x1A
	data[0x22] = 0x1A
	data[0x23] = 26
	data[0x24] = 30
	copy(data[0x2E:], "Overworld")
	copy(data[0x4E:], "Test Game")
	copy(data[0xA9:], "90")
	copy(data[0xAC:], "8000")
	copy(data[0xB1:], "Composer")
	data[0x10100+0x4C] = 0x05

	path := filepath.Join(t.TempDir(), "song.spc")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIsSPC(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.spc")
	if err := os.WriteFile(bad, []byte("not an spc"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"valid", writeSPC(t), true},
		{"bad signature", bad, false},
		{"missing", filepath.Join(t.TempDir(), "none.spc"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSPC(tt.path); got != tt.want {
				t.Errorf("IsSPC = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSongInfoJSON(t *testing.T) {
	out := SongInfoJSON(writeSPC(t))
	if out == "" {
		t.Fatal("SongInfoJSON returned nothing")
	}
	var info songInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("bad JSON %q: %v", out, err)
	}
	if info.Title != "Overworld - Test Game" {
		t.Errorf("Title = %q", info.Title)
	}
	if info.Artist != "Composer" {
		t.Errorf("Artist = %q", info.Artist)
	}
	if info.PlaySeconds != 90 || info.FadeSeconds != 8 {
		t.Errorf("play/fade = %v/%v, want 90/8", info.PlaySeconds, info.FadeSeconds)
	}
	if info.KeyedVoices != 0x05 {
		t.Errorf("KeyedVoices = %d, want 5", info.KeyedVoices)
	}

	if got := SongInfoJSON(filepath.Join(t.TempDir(), "none.spc")); got != "" {
		t.Errorf("missing file gave %q", got)
	}
}
