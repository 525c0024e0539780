// Package level decodes and encodes the textual level description:
//
//	<height> <width>
//	<stars> <bombers>
//	<height rows of '.' (empty) or a digit 1-9>
//	<queue length, 0 for none>
//	<queue tiers separated by whitespace>
//
// Blank lines are ignored and every line is trimmed.
package level

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrParse is wrapped by every ParseError
var ErrParse = errors.New("failed to parse input file")

// ErrorKind classifies parse failures
type ErrorKind string

const (
	KindDimensions ErrorKind = "dimensions"
	KindInventory  ErrorKind = "inventory"
	KindRowLength  ErrorKind = "row_length"
	KindGridChar   ErrorKind = "grid_char"
	KindQueue      ErrorKind = "queue"
)

// ParseError is a structural violation of the level format
type ParseError struct {
	Kind ErrorKind
	Line int // 1-based index among non-blank lines, 0 when unknown
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", ErrParse, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", ErrParse, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

// Level holds the decoded parameters of a puzzle. Grid values are 0 for an
// empty cell and 1-9 for a structure; Grid[x][y] is row x, column y.
type Level struct {
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	NumStars int     `json:"num_stars"`
	NumBombs int     `json:"num_bombs"`
	Grid     [][]int `json:"grid"`
	Queue    []int   `json:"queue"`
}

// MaxDimension bounds the grid size accepted by the decoder
const MaxDimension = 100

// Parse decodes a level from r. It never returns a partially filled level.
func Parse(r io.Reader) (*Level, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}

	return parseLines(lines)
}

// ParseString decodes a level held in memory
func ParseString(raw string) (*Level, error) {
	return Parse(strings.NewReader(raw))
}

func parseLines(lines []string) (*Level, error) {
	if len(lines) < 1 {
		return nil, &ParseError{Kind: KindDimensions, Msg: "missing dimensions line"}
	}
	dims, err := splitInts(lines[0], 2)
	if err != nil {
		return nil, &ParseError{Kind: KindDimensions, Line: 1, Msg: err.Error()}
	}
	height, width := dims[0], dims[1]
	if height < 1 || width < 1 || height > MaxDimension || width > MaxDimension {
		return nil, &ParseError{Kind: KindDimensions, Line: 1,
			Msg: fmt.Sprintf("dimensions must be between 1 and %d, got %dx%d", MaxDimension, height, width)}
	}

	if len(lines) < 2 {
		return nil, &ParseError{Kind: KindInventory, Msg: "missing stars/bombers line"}
	}
	inv, err := splitInts(lines[1], 2)
	if err != nil {
		return nil, &ParseError{Kind: KindInventory, Line: 2, Msg: err.Error()}
	}
	if inv[0] < 0 || inv[1] < 0 {
		return nil, &ParseError{Kind: KindInventory, Line: 2, Msg: "stars and bombers must not be negative"}
	}

	if len(lines) < 2+height {
		return nil, &ParseError{Kind: KindRowLength, Line: len(lines),
			Msg: fmt.Sprintf("expected %d grid rows, got %d", height, len(lines)-2)}
	}
	grid := make([][]int, height)
	for x := 0; x < height; x++ {
		lineNo := 3 + x
		row := lines[2+x]
		if n := utf8.RuneCountInString(row); n != width {
			return nil, &ParseError{Kind: KindRowLength, Line: lineNo,
				Msg: fmt.Sprintf("row has %d cells, expected %d", n, width)}
		}
		grid[x] = make([]int, width)
		y := 0
		for _, ch := range row {
			switch {
			case ch == '.':
				grid[x][y] = 0
			case ch >= '1' && ch <= '9':
				grid[x][y] = int(ch - '0')
			default:
				return nil, &ParseError{Kind: KindGridChar, Line: lineNo,
					Msg: fmt.Sprintf("invalid character %q at column %d", ch, y+1)}
			}
			y++
		}
	}

	queue, err := parseQueue(lines, 2+height)
	if err != nil {
		return nil, err
	}

	return &Level{
		Width:    width,
		Height:   height,
		NumStars: inv[0],
		NumBombs: inv[1],
		Grid:     grid,
		Queue:    queue,
	}, nil
}

func parseQueue(lines []string, idx int) ([]int, error) {
	if idx >= len(lines) {
		// a missing queue section is read as an empty queue
		return []int{}, nil
	}
	if lines[idx] == "0" {
		return []int{}, nil
	}
	if idx+1 >= len(lines) {
		return nil, &ParseError{Kind: KindQueue, Line: idx + 2, Msg: "missing queue line"}
	}

	fields := strings.Fields(lines[idx+1])
	queue := make([]int, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil || v < 1 || v > 9 {
			return nil, &ParseError{Kind: KindQueue, Line: idx + 2,
				Msg: fmt.Sprintf("queue entry %q is not a tier between 1 and 9", f)}
		}
		queue = append(queue, v)
	}
	if len(queue) == 0 {
		return nil, &ParseError{Kind: KindQueue, Line: idx + 2, Msg: "queue line is empty"}
	}
	return queue, nil
}

func splitInts(line string, want int) ([]int, error) {
	fields := strings.Fields(line)
	if len(fields) != want {
		return nil, fmt.Errorf("expected %d integers, got %d", want, len(fields))
	}
	out := make([]int, want)
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", f)
		}
		out[i] = v
	}
	return out, nil
}

// Validate checks the level for internal consistency
func (l *Level) Validate() error {
	if l.Height < 1 || l.Width < 1 {
		return &ParseError{Kind: KindDimensions, Msg: fmt.Sprintf("invalid dimensions %dx%d", l.Height, l.Width)}
	}
	if l.NumStars < 0 || l.NumBombs < 0 {
		return &ParseError{Kind: KindInventory, Msg: "stars and bombers must not be negative"}
	}
	if len(l.Grid) != l.Height {
		return &ParseError{Kind: KindRowLength, Msg: fmt.Sprintf("expected %d rows, got %d", l.Height, len(l.Grid))}
	}
	for x, row := range l.Grid {
		if len(row) != l.Width {
			return &ParseError{Kind: KindRowLength, Msg: fmt.Sprintf("row %d has %d cells, expected %d", x+1, len(row), l.Width)}
		}
		for y, v := range row {
			if v < 0 || v > 9 {
				return &ParseError{Kind: KindGridChar, Msg: fmt.Sprintf("invalid tier %d at (%d, %d)", v, x+1, y+1)}
			}
		}
	}
	for i, v := range l.Queue {
		if v < 1 || v > 9 {
			return &ParseError{Kind: KindQueue, Msg: fmt.Sprintf("queue entry %d is %d, expected 1-9", i+1, v)}
		}
	}
	return nil
}

// Encode writes the level in its textual format
func Encode(w io.Writer, l *Level) error {
	if err := l.Validate(); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d %d\n", l.Height, l.Width)
	fmt.Fprintf(&b, "%d %d\n", l.NumStars, l.NumBombs)
	for _, row := range l.Grid {
		for _, v := range row {
			if v == 0 {
				b.WriteByte('.')
			} else {
				b.WriteByte(byte('0' + v))
			}
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%d\n", len(l.Queue))
	if len(l.Queue) > 0 {
		parts := make([]string, len(l.Queue))
		for i, v := range l.Queue {
			parts[i] = strconv.Itoa(v)
		}
		b.WriteString(strings.Join(parts, " "))
		b.WriteByte('\n')
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// String returns the textual format, or an empty string for an invalid level
func (l *Level) String() string {
	var b strings.Builder
	if err := Encode(&b, l); err != nil {
		return ""
	}
	return b.String()
}

// Filled returns the number of non-empty cells
func (l *Level) Filled() int {
	n := 0
	for _, row := range l.Grid {
		for _, v := range row {
			if v != 0 {
				n++
			}
		}
	}
	return n
}
