// Package gcode implements the word-level tokenizer (Parser) and the modal
// executor (Executor) that together turn one normalized line into a
// fully-qualified motion or control action against a persistent ModalState.
package gcode

// Word is a single floating-point letter word (X, Y, I, J, R, F, S, or P)
// together with a presence flag — a word not present on the line leaves
// Set false and Value at its zero value.
type Word struct {
	Value float64
	Set   bool
}

// Block is the parser's output: a structured, parsed representation of one
// line. At most one G-number and one M-number may be present.
type Block struct {
	X, Y, I, J, R, F, S, P Word

	G    int
	HasG bool

	M    int
	HasM bool
}
