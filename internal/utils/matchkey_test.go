package utils

import "testing"

func TestMatchKey(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{`D:\anime\Show\S01E01.mkv`, `\S01E01.mkv`},
		{`/mnt/media/Show/S01E01.mkv`, `\S01E01.mkv`},
		{`S01E01.mkv`, `\S01E01.mkv`},
		{`/data/Show/[Group] Show - 01 [1080p].mkv`, `\[Group] Show - 01 [1080p].mkv`},
	}

	for _, tt := range tests {
		if got := MatchKey(tt.path); got != tt.want {
			t.Errorf("MatchKey(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestMatchKeyAcrossRoots(t *testing.T) {
	key := MatchKey(`D:\anime\Show\S01E01.mkv`)

	if !HasMatchKeySuffix(`/mnt/media/Show/S01E01.mkv`, key) {
		t.Errorf("expected %q to match a POSIX path with a different root", key)
	}
	if !HasMatchKeySuffix(`Show\S01E01.mkv`, key) {
		t.Errorf("expected %q to match a relative Windows path", key)
	}
}

func TestMatchKeyAvoidsSubstringCollisions(t *testing.T) {
	key := MatchKey(`/plex/Show/E01.mkv`)

	if HasMatchKeySuffix(`/mnt/media/Show/SE01.mkv`, key) {
		t.Error("separator prefix must prevent matching a longer filename")
	}
	if HasMatchKeySuffix(`/mnt/media/Show/E01.mkv.bak`, key) {
		t.Error("suffix match must not accept trailing characters")
	}
	if HasMatchKeySuffix(`/mnt/media/Show/E01.mkv`, "") {
		t.Error("empty key must never match")
	}
}

func TestBaseNameNormalisesUnicode(t *testing.T) {
	decomposed := "/media/Show/Pok\u0065\u0301mon 01.mkv"
	composed := `D:\Show\Pok` + "\u00e9" + `mon 01.mkv`

	if BaseName(decomposed) != BaseName(composed) {
		t.Errorf("expected NFC normalised names to be equal: %q vs %q", BaseName(decomposed), BaseName(composed))
	}
}

func TestMatchKeyKeepsRawFileName(t *testing.T) {
	decomposed := "/media/Show/Pok\u0065\u0301mon 01.mkv"
	composed := `Show\Pok` + "\u00e9" + `mon 01.mkv`

	key := MatchKey(decomposed)
	if want := `\Pok` + "\u0065\u0301" + `mon 01.mkv`; key != want {
		t.Errorf("MatchKey(%q) = %q, want the unnormalised name %q", decomposed, key, want)
	}
	if !HasMatchKeySuffix(composed, key) {
		t.Errorf("expected %q to match %q after normalisation", key, composed)
	}
}
