package finalize

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/reelmap/locations-cli/internal/model"
)

// Columns is the published column order. The dashboard consumes the table
// positionally, so this order is a contract.
var Columns = []string{
	"longitude", "latitude", "title", "address",
	"release_year", "release_decade", "nhood",
}

// WriteCSV writes the published table in the contract column order.
func WriteCSV(w io.Writer, rows []model.ResolvedRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return eris.Wrap(err, "finalize: write csv header")
	}
	for _, r := range rows {
		if err := cw.Write(record(r)); err != nil {
			return eris.Wrap(err, "finalize: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "finalize: flush csv")
}

// WriteXLSX writes the published table as a single-sheet workbook.
func WriteXLSX(path string, rows []model.ResolvedRow) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("locations")
	if err != nil {
		return eris.Wrap(err, "finalize: add sheet")
	}

	hdr := sheet.AddRow()
	for _, c := range Columns {
		hdr.AddCell().SetString(c)
	}
	for _, r := range rows {
		row := sheet.AddRow()
		for _, cell := range record(r) {
			row.AddCell().SetString(cell)
		}
	}

	return eris.Wrapf(f.Save(path), "finalize: save xlsx %s", path)
}

func record(r model.ResolvedRow) []string {
	return []string{
		fmtFloat(r.Longitude),
		fmtFloat(r.Latitude),
		r.Title,
		r.ResolvedAddress,
		fmtInt(r.ReleaseYear),
		fmtInt(r.ReleaseDecade),
		r.Neighborhood,
	}
}

func fmtFloat(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func fmtInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
