package markdown

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

// Priority classifies a checklist item's urgency.
type Priority string

// Priority levels, highest first.
const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// ChecklistItem is a single completion-tracked line of a checklist.
// IDs are derived from the owning section plus ordinal position, so
// reordering items in the source changes their ids.
type ChecklistItem struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Completed   bool     `json:"completed"`
	Priority    Priority `json:"priority,omitempty"`
}

// ChecklistSection groups the items under one checklist heading.
type ChecklistSection struct {
	SectionID     string          `json:"section_id"`
	Name          string          `json:"name"`
	Items         []ChecklistItem `json:"items"`
	CompletionPct int             `json:"completion_pct"`
}

// ChecklistState is a full point-in-time snapshot of a checklist
// document, with running totals across all sections.
type ChecklistState struct {
	Timestamp            time.Time          `json:"timestamp"`
	Sections             []ChecklistSection `json:"sections"`
	TotalItems           int                `json:"total_items"`
	CompletedItems       int                `json:"completed_items"`
	OverallCompletionPct int                `json:"overall_completion_pct"`
}

var (
	// checklistHeadingPattern matches level-2/3 headings with an optional
	// leading numeric token: "## 1. Setup", "### 2.3 Edge cases", "## Notes".
	checklistHeadingPattern = regexp.MustCompile(`^#{2,3}\s+(?:(\d+(?:\.\d+)*)\.?\s+)?(.+?)\s*$`)

	// checklistItemPattern matches "- [x] text" lines. Indentation before
	// the dash is irrelevant; the marker is case-insensitive.
	checklistItemPattern = regexp.MustCompile(`^\s*-\s*\[([ xX])\]\s+(.+?)\s*$`)

	// priorityTagPattern matches a leading bracketed priority tag on an
	// item description, e.g. "[critical] fix the race".
	priorityTagPattern = regexp.MustCompile(`(?i)^\[(critical|high|medium|low)\]\s+`)
)

// ParseChecklist parses a markdown checklist document into a
// ChecklistState snapshot. Headings at level 2-3 open sections; items
// before any heading are ignored — no implicit section is ever created.
// An empty document yields a zero-valued state with no sections.
func ParseChecklist(text string) ChecklistState {
	state := ChecklistState{Timestamp: time.Now().UTC()}

	var (
		current        *ChecklistSection
		sectionCounter int
		completed      int
	)

	closeCurrent := func() {
		if current == nil {
			return
		}
		current.CompletionPct = completionPct(countCompleted(current.Items), len(current.Items))
		state.Sections = append(state.Sections, *current)
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		if m := checklistHeadingPattern.FindStringSubmatch(line); m != nil {
			closeCurrent()
			sectionCounter++
			sectionID := m[1]
			if sectionID == "" {
				sectionID = fmt.Sprintf("section-%d", sectionCounter)
			}
			current = &ChecklistSection{SectionID: sectionID, Name: m[2]}
			continue
		}

		m := checklistItemPattern.FindStringSubmatch(line)
		if m == nil || current == nil {
			continue
		}

		item := ChecklistItem{
			ID:          fmt.Sprintf("%s-item-%d", current.SectionID, len(current.Items)+1),
			Completed:   m[1] == "x" || m[1] == "X",
			Description: m[2],
		}
		if tag := priorityTagPattern.FindStringSubmatch(item.Description); tag != nil {
			item.Priority = Priority(strings.ToLower(tag[1]))
			item.Description = strings.TrimSpace(priorityTagPattern.ReplaceAllString(item.Description, ""))
		}

		current.Items = append(current.Items, item)
		state.TotalItems++
		if item.Completed {
			completed++
		}
	}
	closeCurrent()

	state.CompletedItems = completed
	state.OverallCompletionPct = completionPct(completed, state.TotalItems)
	return state
}

// completionPct returns round(100·completed/total), 0 for zero totals.
func completionPct(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

func countCompleted(items []ChecklistItem) int {
	n := 0
	for _, it := range items {
		if it.Completed {
			n++
		}
	}
	return n
}
