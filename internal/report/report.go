// Package report renders the outcome of reading one buffered stream through
// several cursors.
package report

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Outcome classifies a cursor's two passes over the stream.
type Outcome int

const (
	Repeatable Outcome = iota
	Mismatch
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Repeatable:
		return "repeatable"
	case Mismatch:
		return "mismatch"
	default:
		return "failed"
	}
}

func (o Outcome) style() lipgloss.Style {
	switch o {
	case Repeatable:
		return OutcomeRepeatable
	case Mismatch:
		return OutcomeMismatch
	default:
		return OutcomeFailed
	}
}

// Result is what one cursor observed.
type Result struct {
	Start  int64
	Bytes  int64
	First  []byte
	Second []byte
	Err    error
}

// Outcome compares the digests of both passes.
func (r Result) Outcome() Outcome {
	switch {
	case r.Err != nil:
		return Failed
	case string(r.First) != string(r.Second):
		return Mismatch
	default:
		return Repeatable
	}
}

const (
	barWidth     = 20
	digestLength = 16
)

// Bar returns a styled coverage bar.
func Bar(width int, fraction float64, o Outcome) string {
	if width <= 0 {
		return ""
	}

	fraction = min(max(fraction, 0), 1)

	filled := int(float64(width) * fraction)
	return o.style().Render(strings.Repeat("█", filled)) +
		BarEmptyStyle.Render(strings.Repeat("░", width-filled))
}

// Total returns the length of the stream as seen by the cursors.
func Total(results []Result) int64 {
	var total int64
	for _, r := range results {
		if r.Err == nil {
			total = max(total, r.Start+r.Bytes)
		}
	}
	return total
}

// Render draws one row per cursor followed by a summary line.
func Render(source string, results []Result) string {
	total := Total(results)

	rows := make([][]string, 0, len(results))
	failed := 0
	for i, r := range results {
		o := r.Outcome()
		if o != Repeatable {
			failed++
		}

		var coverage float64
		if total > 0 {
			coverage = float64(r.Bytes) / float64(total)
		}

		digest := "-"
		if r.Err != nil {
			digest = r.Err.Error()
		} else if len(r.First) > 0 {
			digest = shortDigest(r.First)
		}

		rows = append(rows, []string{
			fmt.Sprintf("%d", i),
			fmt.Sprintf("%d", r.Start),
			fmt.Sprintf("%d", r.Bytes),
			Bar(barWidth, coverage, o),
			digest,
			o.String(),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(BorderStyle).
		Headers("CURSOR", "START", "BYTES", "COVERAGE", "BLAKE3", "RESULT").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return HeaderStyle
			case col == 4:
				return DigestStyle
			case col == 5 && row < len(results):
				return results[row].Outcome().style().Padding(0, 1)
			default:
				return CellStyle
			}
		})

	footer := fmt.Sprintf("%d cursors, %d bytes, %d not repeatable", len(results), total, failed)

	return lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render(source),
		t.Render(),
		FooterStyle.Render(footer),
	)
}

func shortDigest(sum []byte) string {
	s := hex.EncodeToString(sum)
	if len(s) > digestLength {
		return s[:digestLength]
	}
	return s
}
