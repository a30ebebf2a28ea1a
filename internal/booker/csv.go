package booker

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"

	"kadence-booker/internal/models"
)

// Canonical column keys. The alias table below collapses the header
// variants seen in the wild (legacy "Desk Name" files and the current
// typed-space files) onto one set of keys, matched case-insensitively.
const (
	colEmail    = "email"
	colBuilding = "building"
	colFloor    = "floor"
	colSpace    = "space"
	colType     = "type"
	colDate     = "date"
	colStart    = "start"
	colEnd      = "end"
)

var columnAliases = map[string]string{
	"email":         colEmail,
	"email address": colEmail,
	"building":      colBuilding,
	"building name": colBuilding,
	"floor":         colFloor,
	"floor name":    colFloor,
	"space":         colSpace,
	"space name":    colSpace,
	"desk":          colSpace,
	"desk name":     colSpace,
	"space type":    colType,
	"type":          colType,
	"date":          colDate,
	"booking date":  colDate,
	"start":         colStart,
	"start time":    colStart,
	"end":           colEnd,
	"end time":      colEnd,
}

// ReadOptions adjusts how the input file is interpreted.
type ReadOptions struct {
	// DateOverride, when set, is applied to every row in place of the
	// file's date column; the column then becomes optional.
	DateOverride string
}

// ReadRows parses the input CSV into rows. The first record is the header;
// an empty file yields zero rows and no error. Required columns must be
// present in the header, but per-row values are only checked later by the
// pipeline's validation step.
func ReadRows(fs afero.Fs, path string, opts ReadOptions) ([]models.InputRow, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file %q: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %q: %w", path, err)
	}

	columns, err := mapHeader(header, opts)
	if err != nil {
		return nil, err
	}

	var rows []models.InputRow
	num := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %q: %w", path, err)
		}
		if blankRecord(record) {
			continue
		}
		num++
		row := models.InputRow{Number: num}
		for i, key := range columns {
			if key == "" || i >= len(record) {
				continue
			}
			value := strings.TrimSpace(record[i])
			switch key {
			case colEmail:
				row.Email = value
			case colBuilding:
				row.Building = value
			case colFloor:
				row.Floor = value
			case colSpace:
				row.Space = value
			case colType:
				row.SpaceType = value
			case colDate:
				row.Date = value
			case colStart:
				row.StartTime = value
			case colEnd:
				row.EndTime = value
			}
		}
		if opts.DateOverride != "" {
			row.Date = opts.DateOverride
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// mapHeader resolves each header cell to a canonical column key. Unknown
// columns are carried as blanks and ignored.
func mapHeader(header []string, opts ReadOptions) ([]string, error) {
	columns := make([]string, len(header))
	seen := map[string]bool{}
	for i, cell := range header {
		key := columnAliases[strings.ToLower(strings.TrimSpace(cell))]
		columns[i] = key
		if key != "" {
			seen[key] = true
		}
	}

	required := []string{colEmail, colBuilding, colFloor, colSpace}
	if opts.DateOverride == "" {
		required = append(required, colDate)
	}
	var missing []string
	for _, key := range required {
		if !seen[key] {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("input file is missing required column(s): %s", strings.Join(missing, ", "))
	}
	return columns, nil
}

func blankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
