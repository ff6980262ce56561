package report

import (
	"fmt"
	"io"

	md "github.com/nao1215/markdown"

	"github.com/agentstation/mapmerge/pkg/dataset"
	"github.com/agentstation/mapmerge/pkg/dedup"
)

// WriteMarkdown writes a Markdown report of the summary to w.
func WriteMarkdown(w io.Writer, s *Summary) error {
	doc := md.NewMarkdown(w)

	doc.H1("mapmerge report")
	if s.DryRun {
		doc.PlainText(md.Italic("Dry run: no files were written.")).LF()
	}

	doc.H2("Outputs")
	rows := make([][]string, 0, len(s.Cleaned)+2)
	for _, c := range s.Cleaned {
		rows = append(rows, []string{md.Code(c.Input), md.Code(c.Output), fmt.Sprint(c.Entries), fmt.Sprint(c.Removed)})
	}
	rows = append(rows,
		[]string{"", md.Code(s.Merged), fmt.Sprint(s.MergedEntries), ""},
		[]string{"", md.Code(s.Duplicates), fmt.Sprint(s.DuplicateEntries), ""},
	)
	doc.Table(md.TableSet{
		Header: headers("input", "output", "entries", "removed"),
		Rows:   rows,
	})

	doc.H2(title(dedup.ConflictName))
	names := make([]string, len(s.NameConflicts))
	for i, n := range s.NameConflicts {
		names[i] = md.Code(n)
	}
	bulletsOrNone(doc, names)

	doc.H2(title(dedup.ConflictID))
	ids := make([]string, len(s.IDConflicts))
	for i, id := range s.IDConflicts {
		ids[i] = md.Code(dataset.FormatID(id))
	}
	bulletsOrNone(doc, ids)

	doc.H2(title(dedup.ConflictExact))
	if len(s.ExactDuplicates) == 0 {
		doc.PlainText("None.").LF()
	} else {
		dupRows := make([][]string, len(s.ExactDuplicates))
		for i, d := range s.ExactDuplicates {
			dupRows[i] = []string{md.Code(d.Name), dataset.FormatID(d.ID)}
		}
		doc.Table(md.TableSet{
			Header: headers("name", "custom_model_data"),
			Rows:   dupRows,
		})
	}

	return doc.Build()
}

func bulletsOrNone(doc *md.Markdown, items []string) {
	if len(items) == 0 {
		doc.PlainText("None.").LF()
		return
	}
	doc.BulletList(items...)
}

func title(kind dedup.ConflictKind) string {
	return headers(string(kind))[0]
}
