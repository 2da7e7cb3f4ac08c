package formulator

import (
	"strconv"
	"strings"

	"github.com/okian/lineup/internal/domain/model"
)

// Markdown renders the formation as a table: one column per team, one
// "player (position)" per row, and the bold balance scores as the last row.
func Markdown(f model.Formation) string {
	if len(f.Teams) == 0 {
		return ""
	}
	var b strings.Builder
	headers := make([]string, len(f.Teams))
	divider := make([]string, len(f.Teams))
	rows := 0
	for i, t := range f.Teams {
		headers[i] = t.Label
		divider[i] = "---"
		rows = max(rows, len(t.Team))
	}
	writeRow(&b, headers)
	writeRow(&b, divider)

	for r := 0; r < rows; r++ {
		cells := make([]string, len(f.Teams))
		for i, t := range f.Teams {
			if r < len(t.Team) {
				id := t.Team[r].ID
				pos, ok := t.Positions[id]
				if !ok {
					pos = "N/A"
				}
				cells[i] = id + " (" + pos + ")"
			}
		}
		writeRow(&b, cells)
	}

	scores := make([]string, len(f.Teams))
	for i, t := range f.Teams {
		scores[i] = "**" + strconv.FormatFloat(t.BalanceScore, 'f', -1, 64) + "**"
	}
	writeRow(&b, scores)
	return b.String()
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("| ")
	b.WriteString(strings.Join(cells, " | "))
	b.WriteString(" |\n")
}
