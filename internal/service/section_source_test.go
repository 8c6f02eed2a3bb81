package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"qpgen_backend/internal/util"
)

func TestMarkdownSectionSourceSplitsOnHeadings(t *testing.T) {
	material := `# Transactions
A transaction is a unit of work.

## ACID Properties
Atomicity, consistency, isolation and durability.

## Concurrency Control
Locking prevents lost updates.
`
	source := NewMarkdownSectionSource()
	sections, err := source.Parse(context.Background(), "dbms-unit-3", strings.NewReader(material))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sections) != 3 {
		t.Fatalf("got %d sections, want 3", len(sections))
	}
	wantTitles := []string{"Transactions", "ACID Properties", "Concurrency Control"}
	wantLevels := []int{1, 2, 2}
	for i, s := range sections {
		if s.Title != wantTitles[i] {
			t.Errorf("section %d title = %q, want %q", i, s.Title, wantTitles[i])
		}
		if s.Level != wantLevels[i] {
			t.Errorf("section %d level = %d, want %d", i, s.Level, wantLevels[i])
		}
		if s.Ord != i {
			t.Errorf("section %d ord = %d, want %d", i, s.Ord, i)
		}
		if strings.TrimSpace(s.Content) == "" {
			t.Errorf("section %d has empty content", i)
		}
	}
}

func TestMarkdownSectionSourceSkipsEmptyHeadings(t *testing.T) {
	material := `# First
Content under first.

# Empty Section

# Third
Content under third.
`
	source := NewMarkdownSectionSource()
	sections, err := source.Parse(context.Background(), "material", strings.NewReader(material))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range sections {
		if s.Title == "Empty Section" {
			t.Error("heading without body should be dropped")
		}
	}
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(sections))
	}
}

func TestMarkdownSectionSourceChunksPlainText(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 12; i++ {
		sb.WriteString(strings.Repeat("plain prose without any heading structure at all ", 4))
		sb.WriteString("\n\n")
	}

	source := &MarkdownSectionSource{ChunkSize: 400}
	sections, err := source.Parse(context.Background(), "notes", strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sections) < 2 {
		t.Fatalf("got %d sections, want plain text split into multiple chunks", len(sections))
	}
	if !strings.HasPrefix(sections[0].Title, "notes (part ") {
		t.Errorf("chunk title = %q, want derived from material title", sections[0].Title)
	}
}

func TestMarkdownSectionSourceExtractsTopics(t *testing.T) {
	material := `# Scheduling
Scheduling decides which process runs next. The scheduler picks a process
from the ready queue. Preemptive scheduling interrupts a running process,
while cooperative scheduling waits for the process to yield.
`
	source := NewMarkdownSectionSource()
	sections, err := source.Parse(context.Background(), "os", strings.NewReader(material))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var topics []string
	if err := json.Unmarshal(sections[0].Topics, &topics); err != nil {
		t.Fatalf("topics not valid JSON: %v", err)
	}
	found := false
	for _, topic := range topics {
		if topic == "scheduling" || topic == "process" {
			found = true
		}
	}
	if !found {
		t.Errorf("topics %v should include a dominant word", topics)
	}
}

func TestMarkdownSectionSourceEmptyMaterial(t *testing.T) {
	source := NewMarkdownSectionSource()
	for _, raw := range []string{"", "   \n\n  \n", "# Only A Heading\n"} {
		_, err := source.Parse(context.Background(), "empty", strings.NewReader(raw))
		if !errors.Is(err, util.ErrParseFailed) {
			t.Errorf("Parse(%q) error = %v, want ErrParseFailed", raw, err)
		}
	}
}

func TestMarkdownSectionSourceHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := NewMarkdownSectionSource()
	_, err := source.Parse(ctx, "m", strings.NewReader("# A\ncontent\n"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}
