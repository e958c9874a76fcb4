// Package report renders package results for people: markdown for files and
// pipes, glamour-styled output on a terminal.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"tour-planner/internal/catalog"
	"tour-planner/internal/engine"
)

// Markdown formats res as a markdown section. cat resolves region and
// attraction names; it may be nil, in which case ids are shown.
func Markdown(res *engine.Result, cat *catalog.Catalog) string {
	var b strings.Builder

	title := res.RegionID
	if cat != nil {
		if r, err := cat.Region(res.RegionID); err == nil && r.Name != "" {
			title = fmt.Sprintf("%s (%s)", r.Name, r.ID)
		}
	}
	fmt.Fprintf(&b, "## Package for %s\n\n", title)

	if len(res.Tours) == 0 {
		b.WriteString("_No feasible tours._\n\n")
	} else {
		b.WriteString("| # | Tour | Days | Cost | Attractions |\n")
		b.WriteString("|---|------|-----:|-----:|-------------|\n")
		for i, t := range res.Tours {
			fmt.Fprintf(&b, "| %d | %s | %d | %s | %s |\n",
				i+1, tourLabel(t), t.DurationDays, Money(t.Cost), attractionList(t, cat))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "**Cultural value:** %d  \n", res.TotalValue)
	fmt.Fprintf(&b, "**Total cost:** %s  \n", Money(res.TotalCost))
	fmt.Fprintf(&b, "**Total days:** %d\n\n", res.TotalDays)

	if len(res.Attractions) > 0 && cat != nil {
		b.WriteString("### Attractions\n\n")
		for _, id := range res.Attractions {
			a, ok := cat.Attraction(id)
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "- %s (value %d)\n", nameOr(a.Name, id), a.CulturalValue)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "_Searched %s nodes over %d candidate tours in %s._\n",
		humanize.Comma(res.Stats.NodesVisited), res.Stats.Candidates, res.Stats.Elapsed.Round(time.Microsecond))
	return b.String()
}

func tourLabel(t *catalog.Tour) string {
	if t.Name == "" {
		return fmt.Sprintf("#%d", t.ID)
	}
	return fmt.Sprintf("%s (#%d)", t.Name, t.ID)
}

func attractionList(t *catalog.Tour, cat *catalog.Catalog) string {
	ids := t.Attractions()
	if len(ids) == 0 {
		return "-"
	}
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = fmt.Sprintf("#%d", id)
		if cat != nil {
			if a, ok := cat.Attraction(id); ok && a.Name != "" {
				names[i] = a.Name
			}
		}
	}
	return strings.Join(names, ", ")
}

func nameOr(name string, id int) string {
	if name == "" {
		return fmt.Sprintf("#%d", id)
	}
	return name
}

// Money formats a cost with thousands separators and two decimals.
func Money(v float64) string {
	return "€" + humanize.FormatFloat("#,###.##", v)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Render writes md to w, styled through glamour when styled is set.
func Render(w io.Writer, md string, styled bool) error {
	if styled {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err == nil {
			out, err := r.Render(md)
			if err == nil {
				_, err = io.WriteString(w, out)
				return err
			}
		}
	}
	_, err := io.WriteString(w, md)
	return err
}

// Print renders md to f, styling only when f is a terminal.
func Print(f *os.File, md string) error {
	return Render(f, md, IsTerminal(f))
}
