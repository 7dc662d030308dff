package pipeline

import (
	"math/rand"
	"testing"
)

func testPool() []string {
	return []string{"FS", "PCA", "OS", "US"}
}

func TestBuildTreeExcludesFSAfterPCA(t *testing.T) {
	root := BuildTree(testPool(), 3, 2)

	pca := childNamed(root, "PCA")
	if pca == nil {
		t.Fatal("expected PCA child at root")
	}
	if childNamed(pca, "FS") != nil {
		t.Error("FS must not appear among PCA's children")
	}
	fs := childNamed(root, "FS")
	if fs == nil {
		t.Fatal("expected FS child at root")
	}
	if childNamed(fs, "PCA") != nil {
		t.Error("PCA must not appear among FS's children")
	}
}

func TestBuildTreeNoConsecutiveOS(t *testing.T) {
	root := BuildTree(testPool(), 3, 5)

	os := childNamed(root, "OS")
	if os == nil {
		t.Fatal("expected OS child at root")
	}
	if childNamed(os, "OS") != nil {
		t.Error("OS must not appear twice in a row")
	}
}

func TestBuildTreeRespectsRepeatLimit(t *testing.T) {
	root := BuildTree([]string{"OS", "US"}, 6, 2)

	n := root
	usCount := 0
	for depth := 0; depth < 6; depth++ {
		us := childNamed(n, "US")
		if us == nil {
			break
		}
		usCount++
		n = us
	}
	if usCount > 2 {
		t.Errorf("US appeared %d times on a single path, limit is 2", usCount)
	}
}

func TestRandomPathIsValid(t *testing.T) {
	root := BuildTree(testPool(), 4, 2)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 50; i++ {
		path := RandomPath(root, rng)
		if !IsValidPath(root, path) {
			t.Fatalf("RandomPath produced an invalid path: %v", path)
		}
	}
}

func TestIsValidPathRejectsIllegalSequence(t *testing.T) {
	root := BuildTree(testPool(), 4, 1)

	if IsValidPath(root, []string{"FS", "PCA"}) {
		t.Error("FS followed by PCA should be invalid")
	}
	if IsValidPath(root, []string{"OS", "OS"}) {
		t.Error("OS followed by OS should be invalid")
	}
	if IsValidPath(root, []string{"nonexistent"}) {
		t.Error("unknown action name should be invalid")
	}
}

func TestSiblingsOfRoot(t *testing.T) {
	root := BuildTree(testPool(), 2, 2)
	rng := rand.New(rand.NewSource(2))
	path := RandomPath(root, rng)
	if len(path) == 0 {
		t.Fatal("expected a non-empty path")
	}

	siblings := SiblingsOf(root, path, 0)
	if len(siblings) == 0 {
		t.Fatal("expected siblings at the root position")
	}
	found := false
	for _, s := range siblings {
		if s.Name == path[0] || s.Name == AddedLeaf {
			found = true
		}
	}
	if !found {
		t.Error("siblings should include the chosen node's own position")
	}
}
