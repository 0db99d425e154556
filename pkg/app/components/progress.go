package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/kerbaras/shelf/pkg/app/styles"
	"github.com/kerbaras/shelf/pkg/services"
)

// Tracker renders the latest progress event of a backup operation.
type Tracker struct {
	bar  progress.Model
	last services.Event
	seen bool
}

func NewTracker(width int) *Tracker {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = width
	return &Tracker{bar: bar}
}

func (t *Tracker) Update(e services.Event) {
	t.last = e
	t.seen = true
}

func (t *Tracker) Last() services.Event {
	return t.last
}

func (t *Tracker) View() string {
	if !t.seen {
		return styles.MutedStyle.Render("Waiting...")
	}

	var b strings.Builder
	b.WriteString(styles.SubtitleStyle.Render(phaseLabel(t.last.Phase)))
	b.WriteString("\n")

	if t.last.TotalUnits > 0 {
		ratio := float64(t.last.ProcessedUnits) / float64(t.last.TotalUnits)
		b.WriteString(t.bar.ViewAs(ratio))
		b.WriteString(fmt.Sprintf(" %d/%d", t.last.ProcessedUnits, t.last.TotalUnits))
		b.WriteString("\n")
	}

	if t.last.CurrentItem != "" {
		b.WriteString(styles.MutedStyle.Render(t.last.CurrentItem))
		b.WriteString("\n")
	}
	if t.last.Err != "" {
		b.WriteString(styles.ErrorStyle.Render(t.last.Err))
		b.WriteString("\n")
	}
	return b.String()
}

func phaseLabel(p services.Phase) string {
	switch p {
	case services.PhasePreparing:
		return "Preparing manifest"
	case services.PhaseCollecting:
		return "Collecting files"
	case services.PhaseArchiving:
		return "Writing archive"
	case services.PhaseExtracting:
		return "Extracting bundle"
	case services.PhaseValidating:
		return "Validating manifest"
	case services.PhaseCategories:
		return "Importing categories"
	case services.PhaseTags:
		return "Importing tags"
	case services.PhaseAssets:
		return "Importing assets"
	case services.PhaseFinalizing:
		return "Finalizing"
	case services.PhaseCompleted:
		return "Completed"
	}
	return string(p)
}
