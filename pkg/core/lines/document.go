// Package lines exposes the lines and brace-delimited blocks of a text
// document as removable elements.
package lines

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Qendolin/delta-reduce-tool/pkg/core/graph"
)

// Kind distinguishes line elements from block elements.
type Kind int

const (
	KindLine Kind = iota
	KindBlock
)

// Element is a single line or a block spanning Start to End (inclusive,
// zero based). A block owns its opening and closing line.
type Element struct {
	Kind       Kind
	Start, End int
}

func (e Element) String() string {
	if e.Kind == KindBlock {
		return fmt.Sprintf("block %d-%d", e.Start+1, e.End+1)
	}
	return fmt.Sprintf("line %d", e.Start+1)
}

// Document is a text split into lines. Removing an element hides its lines;
// every line counts how many removed elements hide it, so a line inside a
// removed block stays hidden when its own removal is undone.
type Document struct {
	lines  []string
	hidden []int
	// trailingNewline records whether the input ended with a newline.
	trailingNewline bool

	elements []Element
	edges    []graph.Edge[Element]
	removed  map[Element]bool
}

// Parse reads a document and builds its line and block structure.
func Parse(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	d := &Document{removed: make(map[Element]bool)}
	d.trailingNewline = bytes.HasSuffix(data, []byte("\n"))
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		d.lines = append(d.lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("splitting document: %w", err)
	}
	d.hidden = make([]int, len(d.lines))

	b := newBlockBuilder(d.lines)
	d.elements, d.edges = b.build()
	return d, nil
}

// ReadFile parses the document stored at path.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Len is the number of lines, hidden ones included.
func (d *Document) Len() int {
	return len(d.lines)
}

// Line returns the text of line i.
func (d *Document) Line(i int) string {
	return d.lines[i]
}

// Visible reports whether line i is currently rendered.
func (d *Document) Visible(i int) bool {
	return d.hidden[i] == 0
}

// VisibleCount is the number of rendered lines.
func (d *Document) VisibleCount() int {
	n := 0
	for _, h := range d.hidden {
		if h == 0 {
			n++
		}
	}
	return n
}

func (d *Document) hide(e Element) {
	for i := e.Start; i <= e.End; i++ {
		d.hidden[i]++
	}
}

func (d *Document) show(e Element) {
	for i := e.Start; i <= e.End; i++ {
		if d.hidden[i] > 0 {
			d.hidden[i]--
		}
	}
}

// Render writes the visible lines.
func (d *Document) Render(w io.Writer) error {
	bw := bufio.NewWriter(w)
	first := true
	for i, line := range d.lines {
		if d.hidden[i] > 0 {
			continue
		}
		if !first {
			bw.WriteByte('\n')
		}
		first = false
		bw.WriteString(line)
	}
	if !first && d.trailingNewline {
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func (d *Document) String() string {
	var sb strings.Builder
	_ = d.Render(&sb)
	return sb.String()
}

// WriteFile renders the document to path.
func (d *Document) WriteFile(path string) error {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing document '%s': %w", path, err)
	}
	return nil
}
