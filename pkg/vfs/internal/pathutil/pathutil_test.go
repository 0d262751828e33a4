package pathutil

import "testing"

func TestIsAbsolute(t *testing.T) {
	tests := []struct {
		path     string
		absolute bool
	}{
		{"", false},
		{"a/b", false},
		{"/a/b", true},
		{"C:/a/b", true},
		{"C:", true},
		{"C", false},
	}
	for _, test := range tests {
		if got := IsAbsolute(test.path); got != test.absolute {
			t.Errorf("IsAbsolute(%q) = %v, expected %v", test.path, got, test.absolute)
		}
	}
}

func TestNormalizeRequiresAbsolute(t *testing.T) {
	if _, err := Normalize("a/b", false, false); err != ErrAbsolutePathRequired {
		t.Fatalf("expected ErrAbsolutePathRequired, got %v", err)
	}
}

func TestNormalizeCollapsesSlashes(t *testing.T) {
	result, err := Normalize("/a//b/../b/c.txt", false, false)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if result != "/a/b/c.txt" {
		t.Errorf("unexpected result: %q", result)
	}
}

func TestNormalizeDirectoryTrailingSlash(t *testing.T) {
	result, err := Normalize("/x/y", true, false)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if result != "/x/y/" {
		t.Errorf("unexpected result: %q", result)
	}
}

func TestNormalizeInvalidParentReference(t *testing.T) {
	if _, err := Normalize("/../a", false, false); err != ErrInvalidPath {
		t.Fatalf("expected ErrInvalidPath, got %v", err)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"/a/b/c", "/a//b/../c/", "C:/a/b"}
	for _, input := range inputs {
		for _, isDir := range []bool{false, true} {
			once, err := Normalize(input, isDir, false)
			if err != nil {
				t.Fatalf("normalize(%q) failed: %v", input, err)
			}
			twice, err := Normalize(once, isDir, false)
			if err != nil {
				t.Fatalf("normalize(%q) failed: %v", once, err)
			}
			if once != twice {
				t.Errorf("normalize not idempotent for %q: %q != %q", input, once, twice)
			}
		}
	}
}

func TestNormalizeUNC(t *testing.T) {
	result, err := Normalize("//server/share/file.txt", false, true)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if result != "//server/share/file.txt" {
		t.Errorf("unexpected result: %q", result)
	}

	// Without UNC support declared, the doubled leading slash collapses.
	result, err = Normalize("//server/share/file.txt", false, false)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if result != "/server/share/file.txt" {
		t.Errorf("unexpected result: %q", result)
	}
}
