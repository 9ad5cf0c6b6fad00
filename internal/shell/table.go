package shell

import (
	"fmt"
	"io"
	"strings"

	"vehicle-catalog/internal/catalog"
)

const (
	plateWidth = 16
	makeWidth  = 20
	modelWidth = 20
	dateWidth  = 16
)

func (s *Shell) showTable(c *catalog.Collection) {
	WriteTable(s.out, c)
}

// WriteTable prints c as the fixed-width table used by the list screens.
func WriteTable(w io.Writer, c *catalog.Collection) {
	indent := strings.Repeat(" ", indentWidth)
	show := func(line string) { fmt.Fprintf(w, "%s%s\n", indent, line) }

	header := fmt.Sprintf("%s | %s | %s | %s",
		center("PLATE", plateWidth),
		center("MAKE", makeWidth),
		center("MODEL", modelWidth),
		center("DATE", dateWidth),
	)
	sep := strings.Join([]string{
		strings.Repeat("-", plateWidth),
		strings.Repeat("-", makeWidth),
		strings.Repeat("-", modelWidth),
		strings.Repeat("-", dateWidth),
	}, "-+-")

	show(header)
	show(sep)

	for v := range c.All() {
		show(fmt.Sprintf("%-*s | %-*s | %-*s | %*s",
			plateWidth, v.Plate(),
			makeWidth, v.Make(),
			modelWidth, v.Model(),
			dateWidth, v.Date(),
		))
	}
}

// center pads s on both sides to width, putting the odd space on the right.
func center(s string, width int) string {
	gap := width - len(s)
	if gap <= 0 {
		return s
	}
	left := gap / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
}
