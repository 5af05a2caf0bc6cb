// Package present renders ranked postings for a terminal.
package present

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"

	"jobwatch-engine/internal/rank"
)

const (
	companyWidth = 12
	titleWidth   = 64
)

// amber marks postings first seen this week.
const amber = "#C8963C"

type Writer struct {
	out *termenv.Output
}

// NewWriter detects the color profile of w. Pass termenv options such as
// termenv.WithProfile to force one.
func NewWriter(w io.Writer, opts ...termenv.OutputOption) *Writer {
	return &Writer{out: termenv.NewOutput(w, opts...)}
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

func (w *Writer) ageColor(days int) termenv.Color {
	switch {
	case days == 0:
		return termenv.ANSICyan
	case days < 7:
		return w.out.Color(amber)
	default:
		return termenv.ANSIRed
	}
}

// Line renders one entry: age, company, title and url.
func (w *Writer) Line(e rank.Entry) string {
	age := w.out.String(fmt.Sprintf("%2d days ago", e.AgeDays)).Foreground(w.ageColor(e.AgeDays)).Bold()

	titleColor := termenv.ANSIRed
	if e.Desirable {
		titleColor = termenv.ANSIGreen
	}
	title := w.out.String(fmt.Sprintf("%-*s", titleWidth, clip(e.Title, titleWidth))).Foreground(titleColor)
	url := w.out.String("(" + e.URL + ")").Italic().Faint()

	return fmt.Sprintf("%s %-*s %s %s", age, companyWidth, clip(e.Company, companyWidth), title, url)
}

// List writes one line per entry in the order given.
func (w *Writer) List(entries []rank.Entry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintln(w.out, w.Line(e)); err != nil {
			return err
		}
	}
	return nil
}
