package landmarks

import (
	"context"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/reelmap/locations-cli/internal/fetcher"
	"github.com/reelmap/locations-cli/internal/model"
)

// Scraper fetches and parses the designated-landmarks listing page.
type Scraper struct {
	fetcher fetcher.Fetcher
	pageURL string
}

// NewScraper creates a scraper for the given page.
func NewScraper(f fetcher.Fetcher, pageURL string) *Scraper {
	return &Scraper{fetcher: f, pageURL: pageURL}
}

// Scrape downloads the page and extracts the landmark table.
func (s *Scraper) Scrape(ctx context.Context) ([]model.LandmarkRecord, error) {
	log := zap.L().With(zap.String("component", "landmarks.scraper"))

	body, err := s.fetcher.Download(ctx, s.pageURL)
	if err != nil {
		return nil, eris.Wrapf(err, "landmarks: fetch %s", s.pageURL)
	}
	defer body.Close() //nolint:errcheck

	html, err := io.ReadAll(io.LimitReader(body, 8<<20))
	if err != nil {
		return nil, eris.Wrap(err, "landmarks: read page")
	}

	records, err := parseWikitable(string(html))
	if err != nil {
		return nil, err
	}

	log.Info("landmark table scraped",
		zap.String("url", s.pageURL),
		zap.Int("landmarks", len(records)),
	)
	return records, nil
}

// parseWikitable extracts name/address pairs from the first table carrying
// the "wikitable sortable" class. Columns are located by header text, so
// image and designation-date columns fall away without being named.
func parseWikitable(html string) ([]model.LandmarkRecord, error) {
	marker := strings.Index(html, "wikitable sortable")
	if marker == -1 {
		return nil, eris.New("landmarks: no wikitable sortable table on page")
	}
	start := strings.LastIndex(html[:marker], "<table")
	if start == -1 {
		return nil, eris.New("landmarks: malformed table markup")
	}
	length := strings.Index(html[marker:], "</table>")
	if length == -1 {
		return nil, eris.New("landmarks: unterminated table")
	}
	table := html[start : marker+length]

	rows := splitRows(table)
	if len(rows) < 2 {
		return nil, eris.New("landmarks: table has no data rows")
	}

	nameIdx, addrIdx := -1, -1
	for i, h := range cellTexts(rows[0]) {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "name":
			nameIdx = i
		case "address":
			addrIdx = i
		}
	}
	if nameIdx == -1 || addrIdx == -1 {
		return nil, eris.New("landmarks: table missing name or address column")
	}

	var records []model.LandmarkRecord
	for _, row := range rows[1:] {
		cells := cellTexts(row)
		if len(cells) <= nameIdx || len(cells) <= addrIdx {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(cells[nameIdx]))
		if name == "" {
			continue
		}
		records = append(records, model.LandmarkRecord{
			Name:    name,
			Address: strings.ToLower(strings.TrimSpace(cells[addrIdx])),
		})
	}
	return records, nil
}

// splitRows returns the inner markup of each <tr> element.
func splitRows(table string) []string {
	var rows []string
	idx := 0
	for {
		pos := strings.Index(table[idx:], "<tr")
		if pos == -1 {
			break
		}
		idx += pos
		open := strings.Index(table[idx:], ">")
		if open == -1 {
			break
		}
		contentStart := idx + open + 1
		end := strings.Index(table[contentStart:], "</tr>")
		if end == -1 {
			break
		}
		rows = append(rows, table[contentStart:contentStart+end])
		idx = contentStart + end + len("</tr>")
	}
	return rows
}

// cellTexts returns the stripped text of each <td> or <th> cell in a row.
func cellTexts(row string) []string {
	var cells []string
	idx := 0
	for {
		rest := row[idx:]
		tdPos := strings.Index(rest, "<td")
		thPos := strings.Index(rest, "<th")

		pos, closeTag := tdPos, "</td>"
		if pos == -1 || (thPos != -1 && thPos < pos) {
			pos, closeTag = thPos, "</th>"
		}
		if pos == -1 {
			break
		}
		idx += pos

		open := strings.Index(row[idx:], ">")
		if open == -1 {
			break
		}
		contentStart := idx + open + 1

		end := strings.Index(row[contentStart:], closeTag)
		if end == -1 {
			cells = append(cells, stripTags(row[contentStart:]))
			break
		}
		cells = append(cells, stripTags(row[contentStart:contentStart+end]))
		idx = contentStart + end + len(closeTag)
	}
	return cells
}

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&#39;", "'",
	"&quot;", `"`,
	"&nbsp;", " ",
	"&lt;", "<",
	"&gt;", ">",
)

// stripTags removes markup from a table cell and collapses whitespace.
func stripTags(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>':
			if depth > 0 {
				depth--
			}
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(entityReplacer.Replace(b.String())), " ")
}
