package syntax

// Position locates a point in source text. Lines are 1-based; Character
// counts bytes from the start of the line and Offset from the start of the
// source, both 0-based, matching LSP conventions.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
	Offset    int `json:"offset"`
}

// Range is a half-open span of source text
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// RangeFromPositions builds the span between two marks
func RangeFromPositions(start, end Position) Range {
	return Range{Start: start, End: end}
}

// PositionTracker is the lexer's cursor over the source. It keeps the
// line/column bookkeeping that a bare byte offset would lose.
type PositionTracker struct {
	source    string
	line      int
	character int
	offset    int
}

func NewPositionTracker(source string) *PositionTracker {
	return &PositionTracker{source: source, line: 1}
}

// AdvanceBytes moves the cursor forward n bytes, stopping at end of source
func (pt *PositionTracker) AdvanceBytes(n int) {
	for ; n > 0 && pt.offset < len(pt.source); n-- {
		if pt.source[pt.offset] == '\n' {
			pt.line++
			pt.character = 0
		} else {
			pt.character++
		}
		pt.offset++
	}
}

// Mark snapshots the cursor as a Position
func (pt *PositionTracker) Mark() Position {
	return Position{Line: pt.line, Character: pt.character, Offset: pt.offset}
}
