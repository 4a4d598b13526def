// Command inbox manages the local SQLite inbox used by the sqlite store backend.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"

	"github.com/aktagon/inbox-sorter/internal/config"
	"github.com/aktagon/inbox-sorter/internal/content"
	"github.com/aktagon/inbox-sorter/internal/normalize"
	"github.com/aktagon/inbox-sorter/internal/store/sqlite"
)

const usage = `Usage: inbox <add|list> ...
  inbox add <link|"quoted text"> [name]
  inbox add --file <file-url> [name]
  inbox list [collection]`

func main() {
	if len(os.Args) < 2 {
		log.Fatal(usage)
	}

	if err := config.EnsureConfigExists(config.Dir); err != nil {
		log.Fatal(err)
	}
	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Settings.Store.Backend != config.BackendSQLite {
		log.Fatalf("store.backend is %q; inbox only manages the sqlite backend", cfg.Settings.Store.Backend)
	}

	ctx := context.Background()
	db, err := sqlite.Open(ctx, cfg.Settings.Store.SQLitePath, cfg.Settings.Store.PendingID)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "add":
		rec, err := parseRecord(os.Args[2:])
		if err != nil {
			log.Fatalf("%v\n%s", err, usage)
		}
		added, err := db.Add(ctx, cfg.Settings.Store.PendingID, rec)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("added %s to %s\n", added.ID, cfg.Settings.Store.PendingID)
	case "list":
		collection := ""
		if len(os.Args) > 2 {
			collection = os.Args[2]
		}
		records, err := db.List(ctx, collection)
		if err != nil {
			log.Fatal(err)
		}
		renderTable(os.Stdout, records, !isTerminal(os.Stdout))
	default:
		log.Fatalf("Unknown command %q\n%s", os.Args[1], usage)
	}
}

// parseRecord builds a pending record from add's arguments. A quoted first
// argument is inline text; anything else is a link.
func parseRecord(args []string) (content.SourceRecord, error) {
	if len(args) == 0 {
		return content.SourceRecord{}, fmt.Errorf("add needs a link, a quoted text or --file")
	}

	if args[0] == "--file" {
		if len(args) < 2 {
			return content.SourceRecord{}, fmt.Errorf("--file needs a URL")
		}
		file := &content.FileRef{URL: args[1], Name: filepath.Base(args[1])}
		name := file.Name
		if len(args) > 2 {
			name = args[2]
		}
		return content.SourceRecord{DisplayName: name, File: file}, nil
	}

	first := strings.TrimSpace(args[0])
	rec := content.SourceRecord{DisplayName: first}
	if rec.IsQuoted() {
		return rec, nil
	}
	rec.Link = first
	if len(args) > 1 {
		rec.DisplayName = args[1]
	}
	return rec, nil
}

// renderTable prints records as a table, or as CSV when asCSV is set.
func renderTable(w io.Writer, records []*sqlite.Record, asCSV bool) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Collection", "Name", "Link", "Type", "Updated"})

	for _, r := range records {
		link := r.Link
		if link == "" && r.File != nil {
			link = r.File.URL
		}
		t.AppendRow(table.Row{
			r.ID,
			r.Collection,
			truncate(r.DisplayName, 40),
			truncate(link, 50),
			r.Properties[normalize.FieldType].Text,
			r.UpdatedAt.Format("2006-01-02 15:04"),
		})
	}
	if asCSV {
		t.RenderCSV()
		return
	}
	t.AppendFooter(table.Row{"", "", "", "", "Total", len(records)})
	t.Render()
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
