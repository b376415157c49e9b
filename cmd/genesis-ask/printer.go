package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/kailas-cloud/genesis/internal/domain"
)

// printer renders pipeline stages for a terminal.
type printer struct {
	w      io.Writer
	header func(a ...any) string
	good   func(a ...any) string
	warn   func(a ...any) string
	bad    func(a ...any) string
	faint  func(a ...any) string
}

func newPrinter(w io.Writer) *printer {
	return &printer{
		w:      w,
		header: color.New(color.FgCyan, color.Bold).SprintFunc(),
		good:   color.New(color.FgGreen).SprintFunc(),
		warn:   color.New(color.FgYellow).SprintFunc(),
		bad:    color.New(color.FgRed).SprintFunc(),
		faint:  color.New(color.Faint).SprintFunc(),
	}
}

func (p *printer) Prompt() {
	fmt.Fprint(p.w, p.header("genesis> "))
}

func (p *printer) Error(err error) {
	fmt.Fprintln(p.w, p.bad("error: "+err.Error()))
}

// Result prints retrieval, draft, critique and the final answer in order.
func (p *printer) Result(res domain.PipelineResult) {
	p.retrieval(res.Retrieval)

	source := "model"
	if !res.Draft.Generated {
		source = "template"
	}
	fmt.Fprintf(p.w, "\n%s %s\n", p.header("Draft"), p.faint(fmt.Sprintf("(%s, %s)", res.Draft.Outcome, source)))
	fmt.Fprintln(p.w, indent(res.Draft.Text))

	p.critique(res.Critique)

	label := p.good("unchanged")
	switch {
	case res.Refinement.Fallback:
		label = p.warn("template fallback")
	case res.Refinement.Refined:
		label = p.good("refined")
	}
	fmt.Fprintf(p.w, "\n%s %s\n", p.header("Answer"), label)
	fmt.Fprintln(p.w, indent(res.FinalResponse))
	fmt.Fprintln(p.w, p.faint(fmt.Sprintf("request %s in %s", res.RequestID, res.Duration.Round(time.Millisecond))))
}

func (p *printer) retrieval(r domain.RetrievalReport) {
	fmt.Fprintf(p.w, "%s %s\n", p.header("Retrieval"), p.level(r.RelevanceLevel))
	if r.Failed() {
		fmt.Fprintln(p.w, indent(p.bad("index unavailable: "+r.Error)))
		return
	}
	if len(r.Results) == 0 {
		fmt.Fprintln(p.w, indent(p.faint("no results")))
		return
	}
	for _, res := range r.Results {
		fmt.Fprintf(p.w, "  %.2f  %-12s %s\n", res.Similarity, res.Category, p.faint(strings.Join(res.Tags, ",")))
	}
}

func (p *printer) level(l domain.RelevanceLevel) string {
	switch l {
	case domain.RelevanceHigh:
		return p.good(string(l))
	case domain.RelevanceMedium, domain.RelevanceLow:
		return p.warn(string(l))
	default:
		return p.bad(string(l))
	}
}

func (p *printer) critique(c domain.CritiqueReport) {
	score := fmt.Sprintf("%.2f", c.Score)
	switch {
	case c.Score >= 0.8:
		score = p.good(score)
	case c.Score >= 0.6:
		score = p.warn(score)
	default:
		score = p.bad(score)
	}
	fmt.Fprintf(p.w, "\n%s %s\n", p.header("Critique"), score)
	for _, is := range c.Issues {
		fmt.Fprintln(p.w, "  - "+p.warn(string(is)))
	}
	if c.Advice != "" {
		fmt.Fprintln(p.w, "  "+c.Advice)
	}
}

// History prints one line per interaction, newest first.
func (p *printer) History(items []domain.Interaction) {
	fmt.Fprintf(p.w, "\n%s %s\n", p.header("History"), p.faint(fmt.Sprintf("(%d)", len(items))))
	for _, in := range items {
		fmt.Fprintf(p.w, "  %s  %-12s %.2f  %s\n",
			p.faint(in.Timestamp.Format("2006-01-02 15:04:05")), in.Outcome, in.Critique.Score, in.Message)
	}
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}
