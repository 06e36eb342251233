package eviction

import (
	"errors"
	"testing"
)

func TestResolveDefaultsToNone(t *testing.T) {
	for _, name := range []string{"", "  ", "none", "NONE"} {
		meta, ok := Resolve(name)
		if !ok {
			t.Fatalf("Resolve(%q) should succeed", name)
		}
		if meta.Name != NoneName {
			t.Fatalf("Resolve(%q) = %s, want %s", name, meta.Name, NoneName)
		}
	}
}

func TestNewRejectsUnknownPolicy(t *testing.T) {
	_, err := New("mru", Params{Root: t.TempDir()})
	if !errors.Is(err, ErrUnknownPolicy) {
		t.Fatalf("expected ErrUnknownPolicy, got %v", err)
	}
}

func TestNonePolicyNeverEvicts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/b/c.bin", 64)

	policy, err := New("", Params{Root: root, Budget: 1})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	files, err := policy.FilesToEvict()
	if err != nil || len(files) != 0 {
		t.Fatalf("none policy selected files: %v (err=%v)", files, err)
	}
	dirs, err := policy.DirectoriesToEvict()
	if err != nil || len(dirs) != 0 {
		t.Fatalf("none policy selected directories: %v (err=%v)", dirs, err)
	}
}

func TestRegistryRejectsDuplicatesAndMissingFactory(t *testing.T) {
	reg := newRegistry()
	meta := Metadata{Name: "Custom", Factory: func(Params) Policy { return nonePolicy{} }}
	if err := reg.register(meta); err != nil {
		t.Fatalf("register error: %v", err)
	}
	if err := reg.register(meta); err == nil {
		t.Fatalf("duplicate registration should fail")
	}
	if err := reg.register(Metadata{Name: "nofactory"}); err == nil {
		t.Fatalf("registration without factory should fail")
	}
	if _, ok := reg.resolve("custom"); !ok {
		t.Fatalf("names should be normalized to lower case")
	}
	if got := reg.list(); len(got) != 1 || got[0].Name != "custom" {
		t.Fatalf("unexpected list %v", got)
	}
}
