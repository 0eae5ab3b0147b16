package imaging

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
)

// ErrMalformedGrid is returned when a numeric grid file cannot be parsed.
var ErrMalformedGrid = errors.New("malformed numeric grid")

// maxLineBytes bounds a single row of a numeric grid.
const maxLineBytes = 64 * 1024 * 1024

// GridHeader is the metadata line of a headered numeric grid:
//
//	<tag>: <width> ... <height>
//
// Only the first, second and fourth whitespace-separated fields are read.
type GridHeader struct {
	Tag    string `json:"tag"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ParseGridHeader parses a metadata header line. It returns nil when the line
// does not have the expected shape.
func ParseGridHeader(line string) *GridHeader {
	fields := strings.Fields(line)
	if len(fields) < 4 || !strings.HasSuffix(fields[0], ":") {
		return nil
	}
	w, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil
	}
	h, err := strconv.Atoi(fields[3])
	if err != nil {
		return nil
	}
	return &GridHeader{
		Tag:    strings.TrimSuffix(fields[0], ":"),
		Width:  w,
		Height: h,
	}
}

// ReadNumericGrid parses a comma-delimited grid of unsigned counts.
//
// When hasHeader is true the first line is treated as metadata and skipped,
// unless it is not a header but a valid data row, in which case it is kept.
// Blank lines are ignored and a single trailing comma per row is tolerated.
// All rows must have the same number of cells.
func ReadNumericGrid(path string, hasHeader bool) (*RawGrid, *GridHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open grid: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxLineBytes)

	var (
		header *GridHeader
		rows   [][]uint64
		width  = -1
		lineNo int
	)

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if hasHeader && lineNo == 1 {
			header = ParseGridHeader(line)
			if header != nil || line == "" {
				continue
			}
			if _, err := parseRow(line); err != nil {
				continue
			}
			log.Printf("%s: no metadata header, reading line 1 as data", path)
		}
		if line == "" {
			continue
		}

		row, err := parseRow(line)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: line %d: %v", ErrMalformedGrid, lineNo, err)
		}
		if width < 0 {
			width = len(row)
		} else if len(row) != width {
			return nil, nil, fmt.Errorf("%w: line %d has %d cells, want %d", ErrMalformedGrid, lineNo, len(row), width)
		}
		rows = append(rows, row)
	}

	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read grid: %w", err)
	}
	if len(rows) == 0 || width == 0 {
		return nil, nil, fmt.Errorf("%w: no data rows", ErrMalformedGrid)
	}

	grid := NewRawGrid(width, len(rows))
	for y, row := range rows {
		copy(grid.Pix[y*width:(y+1)*width], row)
	}
	return grid, header, nil
}

// parseRow splits one data line into counts.
func parseRow(line string) ([]uint64, error) {
	cells := strings.Split(line, ",")
	if n := len(cells); n > 1 && strings.TrimSpace(cells[n-1]) == "" {
		cells = cells[:n-1]
	}

	row := make([]uint64, len(cells))
	for i, cell := range cells {
		v, err := parseCount(strings.TrimSpace(cell))
		if err != nil {
			return nil, fmt.Errorf("cell %d: %v", i+1, err)
		}
		row[i] = v
	}
	return row, nil
}

// parseCount accepts unsigned integers, including integral values written in
// float notation such as "12.0" or "1e3".
func parseCount(s string) (uint64, error) {
	if s == "" {
		return 0, errors.New("empty cell")
	}
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if f < 0 || f != math.Trunc(f) || f >= math.MaxUint64 {
		return 0, fmt.Errorf("%q is not an unsigned integer", s)
	}
	return uint64(f), nil
}
