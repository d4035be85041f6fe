package pipeline

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"spotdl/internal/model"
)

// WriteReport renders the end-of-run summary: per-list counts, and with
// withTable a table of every failed item so reruns have something
// concrete to chase.
func WriteReport(w io.Writer, report model.RunReport, withTable bool) {
	for _, list := range report.Lists {
		cached, downloaded, failed := list.Counts()
		fmt.Fprintf(w, "%s: %d downloaded, %d cached, %d failed\n",
			list.Name, downloaded, cached, failed)
	}
	if !withTable {
		return
	}

	var failed []model.ItemReport
	for _, list := range report.Lists {
		failed = append(failed, list.Failed()...)
	}
	if len(failed) == 0 {
		return
	}

	fmt.Fprintln(w)
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Item", "Album", "Artist", "ID"})
	for i, item := range failed {
		t.AppendRow(table.Row{i + 1, item.Name, item.Album, item.Artist, item.ID})
	}
	t.Render()
}
