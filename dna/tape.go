package dna

// Cell is the unit of tape memory. Arithmetic on cells wraps.
type Cell = uint16

// Tape is a fixed-size circular memory with a single read/write pointer.
type Tape struct {
	ptr   int
	cells []Cell
}

// NewTape allocates a zeroed tape. Sizes below 1 are raised to 1.
func NewTape(size int) *Tape {
	if size < 1 {
		size = 1
	}
	return &Tape{cells: make([]Cell, size)}
}

// Len returns the number of cells.
func (t *Tape) Len() int {
	return len(t.cells)
}

// Ptr returns the current pointer index, always in [0, Len()).
func (t *Tape) Ptr() int {
	return t.ptr
}

// IncPtr moves the pointer right, wrapping to 0 past the last cell.
func (t *Tape) IncPtr() {
	t.ptr++
	if t.ptr == len(t.cells) {
		t.ptr = 0
	}
}

// DecPtr moves the pointer left, wrapping to the last cell before 0.
func (t *Tape) DecPtr() {
	if t.ptr == 0 {
		t.ptr = len(t.cells) - 1
		return
	}
	t.ptr--
}

// IncVal increments the current cell.
func (t *Tape) IncVal() {
	t.cells[t.ptr]++
}

// DecVal decrements the current cell.
func (t *Tape) DecVal() {
	t.cells[t.ptr]--
}

// Val returns the current cell.
func (t *Tape) Val() Cell {
	return t.cells[t.ptr]
}

// Set overwrites the current cell.
func (t *Tape) Set(v Cell) {
	t.cells[t.ptr] = v
}

// At returns the cell at index i (mod Len).
func (t *Tape) At(i int) Cell {
	i %= len(t.cells)
	if i < 0 {
		i += len(t.cells)
	}
	return t.cells[i]
}

// Reset zeroes every cell and rewinds the pointer.
func (t *Tape) Reset() {
	clear(t.cells)
	t.ptr = 0
}
