// Package render turns view models into terminal output. It is one of the
// swappable renderers; the web package is the other.
package render

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"weekcal/internal/view"
	"weekcal/internal/week"
)

// Week writes the five day columns as a table: a header per day, up to
// view.InlineSlots slot rows and a "+N more" footer when a day overflows.
func Week(w io.Writer, vm view.WeekViewModel) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_CENTER)

	header := make([]string, 0, week.DaysVisible)
	for _, d := range vm.Days {
		header = append(header, fmt.Sprintf("%s %s/%s", d.Label, d.Day, d.Month))
	}
	table.SetHeader(header)

	for row := range view.InlineSlots {
		cells := make([]string, 0, week.DaysVisible)
		for _, d := range vm.Days {
			cell := ""
			if row < len(d.Slots) {
				cell = string(d.Slots[row])
			}
			cells = append(cells, cell)
		}
		table.Append(cells)
	}

	footer := make([]string, 0, week.DaysVisible)
	anyMore := false
	for _, d := range vm.Days {
		cell := ""
		if d.HasMore() {
			cell = fmt.Sprintf("+%d more", d.Overflow)
			anyMore = true
		}
		footer = append(footer, cell)
	}
	if anyMore {
		table.Append(footer)
	}

	table.Render()
}

// Overlay writes the detail list of the selected day, or nothing when the
// overlay is closed.
func Overlay(w io.Writer, o view.OverlayViewModel) {
	if !o.Open {
		return
	}
	fmt.Fprintln(w, o.Title())
	if o.Placeholder != "" {
		fmt.Fprintln(w, "  "+o.Placeholder)
		return
	}
	for _, s := range o.Slots {
		fmt.Fprintln(w, "  "+string(s))
	}
}
