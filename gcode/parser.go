package gcode

import (
	"errors"
	"strconv"
)

// ErrInvalidParam is returned for a malformed numeric literal.
var ErrInvalidParam = errors.New("gcode: invalid parameter")

// Parse tokenizes one normalized line (already trimmed, uppercased, and
// comment-free, as delivered by package protocol) into a Block. Unrecognized
// letter words are skipped up to the next whitespace. An empty line yields
// an OK, all-zero Block.
func Parse(line string) (Block, error) {
	var b Block
	i, n := 0, len(line)

	for i < n {
		c := line[i]
		if c == ' ' || c == '\t' {
			i++
			continue
		}
		if !isLetter(c) {
			i++
			continue
		}
		letter := c
		i++

		switch letter {
		case 'G', 'M':
			start := i
			for i < n && isDigit(line[i]) {
				i++
			}
			if i == start {
				return Block{}, ErrInvalidParam
			}
			val, err := strconv.Atoi(line[start:i])
			if err != nil {
				return Block{}, ErrInvalidParam
			}
			if letter == 'G' {
				b.G, b.HasG = val, true
			} else {
				b.M, b.HasM = val, true
			}

		case 'X', 'Y', 'I', 'J', 'R', 'F', 'S', 'P':
			start := i
			if i < n && (line[i] == '+' || line[i] == '-') {
				i++
			}
			digitsStart := i
			for i < n && (isDigit(line[i]) || line[i] == '.') {
				i++
			}
			if i == digitsStart {
				return Block{}, ErrInvalidParam
			}
			val, err := strconv.ParseFloat(line[start:i], 64)
			if err != nil {
				return Block{}, ErrInvalidParam
			}
			setWord(&b, letter, val)

		default:
			// Unrecognized letter word: skip to the next whitespace.
			for i < n && line[i] != ' ' && line[i] != '\t' {
				i++
			}
		}
	}

	return b, nil
}

func setWord(b *Block, letter byte, val float64) {
	switch letter {
	case 'X':
		b.X = Word{Value: val, Set: true}
	case 'Y':
		b.Y = Word{Value: val, Set: true}
	case 'I':
		b.I = Word{Value: val, Set: true}
	case 'J':
		b.J = Word{Value: val, Set: true}
	case 'R':
		b.R = Word{Value: val, Set: true}
	case 'F':
		b.F = Word{Value: val, Set: true}
	case 'S':
		b.S = Word{Value: val, Set: true}
	case 'P':
		b.P = Word{Value: val, Set: true}
	}
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
