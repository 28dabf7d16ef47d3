package types

import (
	"math/rand"
	"testing"
)

func TestCleanupItemValidate(t *testing.T) {
	tests := []struct {
		name    string
		item    CleanupItem
		wantErr bool
	}{
		{"path only", CleanupItem{Kind: "cache", Path: "/tmp/a"}, false},
		{"command only", CleanupItem{Kind: "brew", CleanupCommand: "brew cleanup"}, false},
		{"both", CleanupItem{Kind: "go", Path: "/tmp/go", CleanupCommand: "go clean -cache"}, false},
		{"neither", CleanupItem{Kind: "broken"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckResultAddKeepsTotal(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		r := NewCheckResult("random")
		n := rng.Intn(20)
		for i := 0; i < n; i++ {
			r.Add(CleanupItem{
				Kind:      "kind",
				Path:      "/p/" + string(rune('a'+rng.Intn(8))),
				SizeBytes: uint64(rng.Intn(1 << 20)),
			})
		}

		var sum uint64
		for _, item := range r.Items {
			sum += item.SizeBytes
		}
		if r.TotalSize != sum {
			t.Fatalf("round %d: TotalSize = %d, sum of items = %d", round, r.TotalSize, sum)
		}
	}
}

func TestCheckResultAddReplacesDuplicate(t *testing.T) {
	r := NewCheckResult("dup")
	r.Add(CleanupItem{Kind: "x", Path: "/a", SizeBytes: 100})
	r.Add(CleanupItem{Kind: "x", Path: "/a", SizeBytes: 300})
	r.Add(CleanupItem{Kind: "y", Path: "/a", SizeBytes: 5})

	if len(r.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(r.Items))
	}
	if r.TotalSize != 305 {
		t.Errorf("expected TotalSize 305, got %d", r.TotalSize)
	}
}

func TestCheckResultCloneIsIndependent(t *testing.T) {
	r := NewCheckResult("orig")
	r.Add(CleanupItem{Kind: "x", Path: "/a", SizeBytes: 1})

	c := r.Clone()
	c.Items[0].Path = "/changed"

	if r.Items[0].Path != "/a" {
		t.Error("Clone shares item storage with the original")
	}
}

func TestTotalReclaimable(t *testing.T) {
	results := []CheckResult{{TotalSize: 10}, {TotalSize: 32}}
	if got := TotalReclaimable(results); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
}
