package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/tsawler/piscan"
	"github.com/tsawler/piscan/assemble"
	"github.com/tsawler/piscan/model"
)

var (
	// titleStyle for bold headers
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	// dimStyle for labels
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// successStyle for good counts
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	// warnStyle for counts worth a look
	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	// errorStyle for failures
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// boxStyle for summary boxes
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)
)

// count renders n with style when it is non-zero.
func count(n int, style lipgloss.Style) string {
	if n == 0 {
		return dimStyle.Render("0")
	}
	return style.Render(formatNumber(n))
}

// FormatReport renders the extraction summary box
func FormatReport(w io.Writer, r *piscan.Report) {
	line1 := fmt.Sprintf("%s %s  %s %s  %s %s",
		dimStyle.Render("Books:"), count(r.Books, successStyle),
		dimStyle.Render("failed"), count(r.BooksFailed, errorStyle),
		dimStyle.Render("Elapsed:"), r.Elapsed.Round(10*time.Millisecond),
	)
	line2 := fmt.Sprintf("%s %s  %s %s  %s %s",
		dimStyle.Render("Pages:"), count(r.Pages, successStyle),
		dimStyle.Render("failed"), count(r.PagesFailed, errorStyle),
		dimStyle.Render("not started"), count(r.PagesSkipped, warnStyle),
	)
	line3 := fmt.Sprintf("%s %s  %s %s  %s %s",
		dimStyle.Render("Numbers:"), count(r.Spans, successStyle),
		dimStyle.Render("new crops"), count(r.Artifacts, successStyle),
		dimStyle.Render("already cataloged"), count(r.Duplicates, dimStyle),
	)
	line4 := fmt.Sprintf("%s %s  %s %s",
		dimStyle.Render("Rejected crops:"), count(r.Rejected, warnStyle),
		dimStyle.Render("Dropped words:"), count(r.DroppedWords, warnStyle),
	)

	content := titleStyle.Render("Extraction") + "\n" + strings.Join([]string{line1, line2, line3, line4}, "\n")
	fmt.Fprintln(w, boxStyle.Render(content))
}

// FormatStats renders the assembly summary box
func FormatStats(w io.Writer, s assemble.Stats) {
	line1 := fmt.Sprintf("%s %s  %s %s  %s %s",
		dimStyle.Render("Digits:"), formatNumber(s.Digits),
		dimStyle.Render("Placements:"), formatNumber(s.Placements),
		dimStyle.Render("Avg span:"), fmt.Sprintf("%.2f", s.AvgSpanLength),
	)
	line2 := fmt.Sprintf("%s %s  %s %s  %s %s",
		dimStyle.Render("Fallbacks:"), count(s.Fallbacks, warnStyle),
		dimStyle.Render("Books:"), count(s.DistinctBooks, successStyle),
		dimStyle.Render("Diversity relaxed:"), count(s.Relaxed, warnStyle),
	)

	content := titleStyle.Render("Assembly") + "\n" + line1 + "\n" + line2
	fmt.Fprintln(w, boxStyle.Render(content))
}

// FormatWarnings lists warnings one per line
func FormatWarnings(w io.Writer, warnings []piscan.Warning) {
	fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("%d warnings", len(warnings))))
	for _, warning := range warnings {
		fmt.Fprintf(w, "  %s %s\n", warnStyle.Render("!"), warning.String())
	}
}

// FormatAttribution lists the books whose crops appear in placements, in
// order of first use.
func FormatAttribution(w io.Writer, placements []model.Placement, books []model.Book) {
	titles := make(map[string]string, len(books))
	for _, b := range books {
		titles[b.ID] = b.Title
	}

	var used []string
	for _, p := range placements {
		if p.Artifact != nil && !slices.Contains(used, p.Artifact.BookID) {
			used = append(used, p.Artifact.BookID)
		}
	}
	if len(used) == 0 {
		return
	}

	fmt.Fprintln(w, titleStyle.Render("Sources"))
	for _, id := range used {
		if title := titles[id]; title != "" {
			fmt.Fprintf(w, "  %s %s\n", title, dimStyle.Render("("+id+")"))
		} else {
			fmt.Fprintf(w, "  %s\n", id)
		}
	}
}

// FormatBooks renders the catalog's books
func FormatBooks(w io.Writer, books []model.Book) {
	if len(books) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No books in the catalog"))
		return
	}
	for _, b := range books {
		line := titleStyle.Render(b.ID)
		if b.Title != "" {
			line += " " + b.Title
		}
		if b.ArchiveID != "" {
			line += " " + dimStyle.Render("["+b.ArchiveID+"]")
		}
		fmt.Fprintln(w, line)
	}
}

// placementJSON is the wire form of a placement for the layout step.
type placementJSON struct {
	Position     int           `json:"position"`
	Digits       string        `json:"digits"`
	Artifact     *artifactJSON `json:"artifact,omitempty"`
	Fallback     bool          `json:"fallback,omitempty"`
	IntegerPart  bool          `json:"integer_part,omitempty"`
	LeadingZeros int           `json:"leading_zeros,omitempty"`
}

type artifactJSON struct {
	ID     string `json:"id"`
	Value  int    `json:"value"`
	Book   string `json:"book"`
	Page   string `json:"page"`
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// WritePlacements writes placements as an indented JSON array.
func WritePlacements(w io.Writer, placements []model.Placement) error {
	out := make([]placementJSON, len(placements))
	for i, p := range placements {
		out[i] = placementJSON{
			Position:     p.Position,
			Digits:       p.Digits,
			Fallback:     p.IsFallback(),
			IntegerPart:  p.IntegerPart,
			LeadingZeros: p.LeadingZeros,
		}
		if a := p.Artifact; a != nil {
			out[i].Artifact = &artifactJSON{
				ID:     a.ID.String(),
				Value:  a.Value,
				Book:   a.BookID,
				Page:   a.PageID,
				Path:   a.Path,
				Width:  a.Width,
				Height: a.Height,
			}
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// formatNumber formats an integer with thousand separators
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%d,%03d", n/1000, n%1000)
	}
	return fmt.Sprintf("%d,%03d,%03d", n/1000000, (n/1000)%1000, n%1000)
}
