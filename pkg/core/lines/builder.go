package lines

import (
	"sort"
	"strings"

	"github.com/Qendolin/delta-reduce-tool/pkg/core/graph"
)

type openBlock struct {
	start    int
	children []Element
}

// blockBuilder carries the scanner state while the block structure of a
// document is built. Each Parse uses a fresh builder.
type blockBuilder struct {
	lines []string

	stack    []*openBlock
	topLevel []Element
	seen     map[Element]bool
	elements []Element
	edges    []graph.Edge[Element]

	inBlockComment bool
	inRawString    bool
}

func newBlockBuilder(lines []string) *blockBuilder {
	return &blockBuilder{lines: lines, seen: make(map[Element]bool)}
}

func (b *blockBuilder) build() ([]Element, []graph.Edge[Element]) {
	for i, line := range b.lines {
		b.scanLine(i, line)
	}

	// Unclosed blocks dissolve: the opening line becomes a plain line of the
	// enclosing block.
	for len(b.stack) > 0 {
		f := b.pop()
		if strings.TrimSpace(b.lines[f.start]) != "" {
			b.addChild(Element{Kind: KindLine, Start: f.start, End: f.start})
		}
		for _, c := range f.children {
			b.addChild(c)
		}
	}
	for _, c := range b.topLevel {
		b.register(c)
	}

	sort.Slice(b.elements, func(i, j int) bool {
		if b.elements[i].Start != b.elements[j].Start {
			return b.elements[i].Start < b.elements[j].Start
		}
		return b.elements[i].End > b.elements[j].End
	})
	return b.elements, b.edges
}

// scanLine feeds one line through the brace scanner. Braces inside string
// literals and comments are ignored.
func (b *blockBuilder) scanLine(i int, line string) {
	opened := 0
	closed := false
	var quote byte

	for k := 0; k < len(line); k++ {
		c := line[k]
		switch {
		case b.inBlockComment:
			if c == '*' && k+1 < len(line) && line[k+1] == '/' {
				b.inBlockComment = false
				k++
			}
			continue
		case b.inRawString:
			if c == '`' {
				b.inRawString = false
			}
			continue
		case quote != 0:
			if c == '\\' {
				k++
			} else if c == quote {
				quote = 0
			}
			continue
		}

		switch c {
		case '"', '\'':
			quote = c
		case '`':
			b.inRawString = true
		case '/':
			if k+1 < len(line) && line[k+1] == '/' {
				k = len(line)
			} else if k+1 < len(line) && line[k+1] == '*' {
				b.inBlockComment = true
				k++
			}
		case '{':
			b.stack = append(b.stack, &openBlock{start: i})
			opened++
		case '}':
			switch {
			case opened > 0:
				// Opened and closed on this line: not a block.
				b.pop()
				opened--
			case len(b.stack) > 0:
				b.close(i)
				closed = true
			}
		}
	}

	if opened == 0 && !closed && strings.TrimSpace(line) != "" {
		b.addChild(Element{Kind: KindLine, Start: i, End: i})
	}
}

func (b *blockBuilder) pop() *openBlock {
	f := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	return f
}

func (b *blockBuilder) close(end int) {
	f := b.pop()
	el := Element{Kind: KindBlock, Start: f.start, End: end}
	for _, c := range f.children {
		b.register(c)
		if c != el {
			b.edges = append(b.edges, graph.Edge[Element]{From: el, To: c, Relation: graph.Relation{Label: "contains"}})
		}
	}
	b.addChild(el)
}

func (b *blockBuilder) addChild(e Element) {
	if len(b.stack) == 0 {
		b.topLevel = append(b.topLevel, e)
		return
	}
	top := b.stack[len(b.stack)-1]
	top.children = append(top.children, e)
}

// register records e once. "{{" ... "}}" produces the same block twice.
func (b *blockBuilder) register(e Element) {
	if b.seen[e] {
		return
	}
	b.seen[e] = true
	b.elements = append(b.elements, e)
}
