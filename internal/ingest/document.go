package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/net/html"
)

// ErrUnreadableDocument marks an upload that is neither a readable
// spreadsheet nor an HTML export. Unlike a leaf parse failure this is a hard
// error: there is no data to salvage.
var ErrUnreadableDocument = errors.New("document is not a readable spreadsheet or html export")

// Document is one uploaded vendor export, fully materialized. Spreadsheet
// uploads carry their first sheet as a cell grid; HTML uploads carry the raw
// markup plus the rows of every table found in it.
type Document struct {
	Grid [][]string
	Raw  string
	html bool
}

func (d *Document) IsHTML() bool { return d.html }

// Cell returns the trimmed cell at (row, col), or "" when out of range.
func (d *Document) Cell(row, col int) string {
	if row < 0 || row >= len(d.Grid) {
		return ""
	}
	cells := d.Grid[row]
	if col < 0 || col >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[col])
}

// ReadDocument sniffs and materializes an upload. A spreadsheet read is
// attempted first; on failure the content is checked for HTML markers before
// the upload is rejected outright.
func ReadDocument(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", ErrUnreadableDocument)
	}

	if file, err := excelize.OpenReader(bytes.NewReader(data)); err == nil {
		defer file.Close()
		sheet := file.GetSheetName(0)
		rows, err := file.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
		}
		return &Document{Grid: rows}, nil
	}

	head := strings.ToLower(string(data[:min(len(data), 2048)]))
	if strings.Contains(head, "<html") || strings.Contains(head, "<meta") || strings.Contains(head, "<table") {
		raw := string(data)
		return &Document{Raw: raw, Grid: tableRows(raw), html: true}, nil
	}

	return nil, fmt.Errorf("%w: no spreadsheet structure and no html markers", ErrUnreadableDocument)
}

// tableRows extracts every <tr> of the markup as a row of its <td>/<th>
// cells, in document order across all tables. Cells keep their inner markup
// so a map-link anchor survives for the location extractor; consumers strip
// tags before comparing cell text.
func tableRows(markup string) [][]string {
	tok := html.NewTokenizer(strings.NewReader(markup))

	var rows [][]string
	var row []string
	var cell strings.Builder
	inRow, inCell := false, false

	flushCell := func() {
		if inCell {
			row = append(row, strings.TrimSpace(cell.String()))
			cell.Reset()
			inCell = false
		}
	}
	flushRow := func() {
		flushCell()
		if inRow {
			rows = append(rows, row)
			row = nil
			inRow = false
		}
	}

	for {
		tt := tok.Next()
		if tt == html.ErrorToken {
			break
		}
		raw := string(tok.Raw())
		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := tok.TagName()
			switch string(name) {
			case "tr":
				flushRow()
				inRow = true
			case "td", "th":
				flushCell()
				if inRow {
					inCell = true
				}
			default:
				if inCell {
					cell.WriteString(raw)
				}
			}
		case html.EndTagToken:
			name, _ := tok.TagName()
			switch string(name) {
			case "tr":
				flushRow()
			case "td", "th":
				flushCell()
			default:
				if inCell {
					cell.WriteString(raw)
				}
			}
		case html.TextToken:
			if inCell {
				cell.WriteString(raw)
			}
		}
	}
	flushRow()
	return rows
}
