package cache

import (
	"testing"
	"time"

	"github.com/mailproof/mailproof/internal/model"
)

const testURL = "https://www.acme.example/sale"

func sampleStatus() model.LinkStatus {
	return model.LinkStatus{
		URL:          testURL,
		StatusCode:   200,
		IsAccessible: true,
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory(time.Minute, time.Minute)
	if _, ok := m.GetLink(testURL); ok {
		t.Fatal("unexpected hit on empty cache")
	}
	if err := m.SetLink(testURL, sampleStatus(), time.Minute); err != nil {
		t.Fatal(err)
	}
	st, ok := m.GetLink(testURL)
	if !ok || st.StatusCode != 200 {
		t.Fatalf("got %+v ok=%v", st, ok)
	}
	if err := m.Delete(testURL); err != nil {
		t.Fatal(err)
	}
	if _, ok := m.GetLink(testURL); ok {
		t.Fatal("hit after delete")
	}
}

func TestDiskRoundTripAndExpiry(t *testing.T) {
	d := NewDisk(t.TempDir(), time.Hour)
	if err := d.SetLink(testURL, sampleStatus(), time.Hour); err != nil {
		t.Fatal(err)
	}
	st, ok := d.GetLink(testURL)
	if !ok || !st.IsAccessible {
		t.Fatalf("got %+v ok=%v", st, ok)
	}

	// An already-expired entry must miss and be removed.
	if err := d.SetLink(testURL, sampleStatus(), -time.Second); err != nil {
		t.Fatal(err)
	}
	if _, ok := d.GetLink(testURL); ok {
		t.Fatal("expired entry served")
	}
}

func TestLayeredPromotesDiskHit(t *testing.T) {
	dir := t.TempDir()
	l := NewLayered(time.Minute, dir, time.Hour)
	if err := l.SetLink(testURL, sampleStatus(), time.Hour); err != nil {
		t.Fatal(err)
	}

	// Simulate a fresh process: memory empty, disk warm.
	l.memory = NewMemory(time.Minute, time.Minute)
	st, ok := l.GetLink(testURL)
	if !ok || st.StatusCode != 200 {
		t.Fatalf("disk fallback failed: %+v ok=%v", st, ok)
	}
	if _, ok := l.memory.GetLink(testURL); !ok {
		t.Error("disk hit was not promoted to memory")
	}
}

func TestKeyStable(t *testing.T) {
	if Key(testURL) != Key(testURL) {
		t.Fatal("key not deterministic")
	}
	if Key(testURL) == Key(testURL+"?x=1") {
		t.Fatal("distinct URLs share a key")
	}
}
