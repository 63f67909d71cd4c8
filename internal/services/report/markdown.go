package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/tickerscope/internal/models"
)

// Markdown renders the report as a markdown document.
func Markdown(r *models.TickerReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", r.Ticker)
	fmt.Fprintf(&b, "Generated %s\n\n", r.GeneratedAt.Format("2006-01-02 15:04 MST"))

	if r.Ownership != nil {
		writeOwnership(&b, r.Ownership)
	}
	if r.Safety != nil {
		writeSafety(&b, r.Safety)
	}
	if r.Ratios != nil {
		writeRatios(&b, r.Ratios)
	}
	if r.Sentiment != nil {
		writeSentiment(&b, r.Sentiment)
	}
	if r.Mood != nil {
		writeMood(&b, r.Mood)
	}

	if len(r.Errors) > 0 {
		b.WriteString("## Errors\n\n")
		sections := make([]string, 0, len(r.Errors))
		for section := range r.Errors {
			sections = append(sections, section)
		}
		sort.Strings(sections)
		for _, section := range sections {
			fmt.Fprintf(&b, "- **%s**: %s\n", section, r.Errors[section])
		}
		b.WriteString("\n")
	}

	return b.String()
}

// Analysis renders a batch ownership analysis grouped by band.
func Analysis(a *models.OwnershipAnalysis) string {
	var b strings.Builder
	b.WriteString("# Institutional Ownership\n\n")

	group := func(title string, reports []models.OwnershipReport) {
		fmt.Fprintf(&b, "## %s (%d)\n\n", title, len(reports))
		if len(reports) == 0 {
			b.WriteString("None\n\n")
			return
		}
		b.WriteString("| Ticker | Ownership | Source |\n|---|---|---|\n")
		for _, rep := range reports {
			if rep.Result == nil {
				fmt.Fprintf(&b, "| %s | n/a | n/a |\n", cell(rep.Ticker))
				continue
			}
			fmt.Fprintf(&b, "| %s | %.2f%% | %s |\n", cell(rep.Ticker), rep.Result.Percent, sourceLabel(rep.Result))
		}
		b.WriteString("\n")
	}

	group("High", a.High)
	group("Medium", a.Medium)
	group("Low", a.Low)

	if len(a.Unavailable) > 0 {
		fmt.Fprintf(&b, "## Unavailable (%d)\n\n", len(a.Unavailable))
		for _, rep := range a.Unavailable {
			fmt.Fprintf(&b, "- **%s**: %s\n", rep.Ticker, rep.Guidance)
		}
		b.WriteString("\n")
	}
	if len(a.Invalid) > 0 {
		fmt.Fprintf(&b, "Invalid tickers ignored: %s\n", strings.Join(a.Invalid, ", "))
	}

	return b.String()
}

func writeOwnership(b *strings.Builder, o *models.OwnershipReport) {
	b.WriteString("## Institutional Ownership\n\n")
	if !o.Available || o.Result == nil {
		fmt.Fprintf(b, "Unavailable. %s\n\n", o.Guidance)
		if len(o.Attempts) > 0 {
			for _, a := range o.Attempts {
				fmt.Fprintf(b, "- %s: %s", a.Source, a.Outcome)
				if a.Detail != "" {
					fmt.Fprintf(b, " (%s)", a.Detail)
				}
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
		return
	}

	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(b, "| Institutional ownership | %.2f%% |\n", o.Result.Percent)
	fmt.Fprintf(b, "| Band | %s |\n", o.Band)
	fmt.Fprintf(b, "| Source | %s |\n", sourceLabel(o.Result))
	fmt.Fprintf(b, "| Cached | %s |\n", yesNo(o.Cached))
	b.WriteString("\n")
}

func writeSafety(b *strings.Builder, s *models.SafetyReport) {
	b.WriteString("## Fundamental Safety\n\n")
	b.WriteString("| Component | Input | Score |\n|---|---|---|\n")
	fmt.Fprintf(b, "| Beta | %s | %.1f |\n", optional(s.Inputs.Beta), s.Score.Components.BetaScore)
	fmt.Fprintf(b, "| Debt to equity | %s | %.1f |\n", optional(s.Inputs.DebtToEquity), s.Score.Components.DebtScore)
	fmt.Fprintf(b, "| Analyst rating | %s | %.1f |\n", optional(s.Inputs.AnalystRating), s.Score.Components.AnalystScore)
	fmt.Fprintf(b, "| **Safety score** | | **%.1f** |\n\n", s.Score.Value)

	if !s.Score.Complete() {
		fmt.Fprintf(b, "Partial score: neutral defaults used for %s.\n\n", strings.Join(s.Score.Defaulted, ", "))
	}
}

func writeRatios(b *strings.Builder, r *models.FinancialRatios) {
	b.WriteString("## Financial Ratios\n\n")
	b.WriteString("| Ratio | Value |\n|---|---|\n")
	fmt.Fprintf(b, "| P/E | %s |\n", optional(r.PERatio))
	fmt.Fprintf(b, "| ROE | %s |\n", optional(r.ROE))
	fmt.Fprintf(b, "| Debt/Equity | %s |\n", optional(r.DebtToEquity))
	fmt.Fprintf(b, "| EPS | %s |\n", optional(r.EPS))
	if r.Source != "" {
		fmt.Fprintf(b, "\nSource: %s\n", r.Source)
	}
	b.WriteString("\n")
}

func writeSentiment(b *strings.Builder, s *models.SentimentReport) {
	b.WriteString("## News Sentiment\n\n")
	if !s.Available || s.Summary == nil {
		fmt.Fprintf(b, "Unavailable. %s\n\n", s.Guidance)
		return
	}

	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(b, "| Average compound | %+.3f |\n", s.Summary.AverageCompound)
	fmt.Fprintf(b, "| Sentiment score | %.1f |\n", s.Summary.SafetyScore)
	fmt.Fprintf(b, "| Headlines | %d |\n", len(s.Summary.Records))
	if s.Scorer != "" {
		fmt.Fprintf(b, "| Scorer | %s |\n", cell(s.Scorer))
	}
	b.WriteString("\n")

	for _, rec := range s.Summary.Records {
		fmt.Fprintf(b, "- `%+.2f` %s\n", rec.Compound, rec.Headline)
	}
	if len(s.Summary.Records) > 0 {
		b.WriteString("\n")
	}
}

func writeMood(b *strings.Builder, m *models.MarketMood) {
	b.WriteString("## Market Mood\n\n")
	b.WriteString("| Indicator | Value |\n|---|---|\n")
	if m.VIX != nil {
		fmt.Fprintf(b, "| VIX | %.2f (%s) |\n", m.VIX.Value, m.VIX.Band)
	} else {
		b.WriteString("| VIX | n/a |\n")
	}
	if m.FearGreed != nil {
		fmt.Fprintf(b, "| Fear & Greed | %d (%s) |\n", m.FearGreed.Value, cell(m.FearGreed.Classification))
	} else {
		b.WriteString("| Fear & Greed | n/a |\n")
	}
	b.WriteString("\n")
	for _, e := range m.Errors {
		fmt.Fprintf(b, "- %s\n", e)
	}
	if len(m.Errors) > 0 {
		b.WriteString("\n")
	}
}

func sourceLabel(r *models.OwnershipResult) string {
	if r.Degraded {
		return string(r.Source) + " (degraded)"
	}
	return string(r.Source)
}

func optional(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// cell escapes pipes so values cannot break a table row.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
