package main

import (
	"bytes"
	"strings"
	"testing"

	"pixbatch/internal/batch"
)

func TestRunProgressPlainPrintsEachTransitionOnce(t *testing.T) {
	var buf bytes.Buffer
	p := newRunProgress(&buf, false)

	item := batch.Item{ID: "item-1", Source: batch.Source{Name: "a.png"}}
	p.OnEvent(batch.Event{Kind: batch.EventProgress, Run: batch.Running(0, 2)})
	item.Status = batch.StatusConverting
	p.OnEvent(batch.Event{Kind: batch.EventItemUpdated, Item: item})
	item.Status = batch.StatusDone
	p.OnEvent(batch.Event{Kind: batch.EventItemUpdated, Item: item})
	// result dimensions arriving later re-publish the same status
	p.OnEvent(batch.Event{Kind: batch.EventItemUpdated, Item: item})

	other := batch.Item{ID: "item-2", Source: batch.Source{Name: "b.png"}, Status: batch.StatusError, ErrorMessage: "boom"}
	p.OnEvent(batch.Event{Kind: batch.EventItemUpdated, Item: other})
	p.OnEvent(batch.Event{Kind: batch.EventProgress, Run: batch.Idle()})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{"done   a.png", "failed b.png: boom"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestRunProgressInteractiveDrivesBar(t *testing.T) {
	var buf bytes.Buffer
	p := newRunProgress(&buf, true)

	p.OnEvent(batch.Event{Kind: batch.EventProgress, Run: batch.Running(0, 2)})
	if p.bar == nil {
		t.Fatal("expected a progress bar once the run starts")
	}
	p.OnEvent(batch.Event{Kind: batch.EventProgress, Run: batch.Running(1, 2)})
	p.OnEvent(batch.Event{Kind: batch.EventProgress, Run: batch.Running(2, 2)})
	p.OnEvent(batch.Event{Kind: batch.EventProgress, Run: batch.Idle()})
	if p.bar != nil {
		t.Fatal("expected the bar to be cleared when the run goes idle")
	}
	if buf.Len() == 0 {
		t.Fatal("expected progress output")
	}
}
