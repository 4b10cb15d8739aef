// Package pdb extracts atom records from PDB-format structure files. Parsing
// is limited to what structural comparison needs: atom name, residue index,
// and coordinates from ATOM records of the first model. Everything else in
// the file is ignored.
package pdb

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/domain"
	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/domain/structure"
)

// PDB ATOM record fixed columns (1-based, inclusive) per the wwPDB format.
const (
	colNameStart = 12
	colNameEnd   = 16
	colResStart  = 22
	colResEnd    = 26
	colXStart    = 30
	colXEnd      = 38
	colYStart    = 38
	colYEnd      = 46
	colZStart    = 46
	colZEnd      = 54
)

// Parse reads the first model from PDB-format bytes.
func Parse(data []byte) (structure.Structure, error) {
	return Read(bytes.NewReader(data))
}

// Read reads the first model from a PDB-format stream, preserving atom file
// order.
func Read(r io.Reader) (structure.Structure, error) {
	var atoms []structure.Atom

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		record := line
		if len(record) > 6 {
			record = record[:6]
		}
		switch strings.TrimSpace(record) {
		case "ENDMDL", "END":
			// Single-model reads: stop at the first model boundary.
			return done(atoms)
		case "ATOM":
		default:
			continue
		}

		atom, err := parseAtom(line)
		if err != nil {
			return structure.Structure{}, fmt.Errorf("line %d: %w", lineNo, err)
		}
		atoms = append(atoms, atom)
	}
	if err := scanner.Err(); err != nil {
		return structure.Structure{}, fmt.Errorf("read pdb: %w", err)
	}
	return done(atoms)
}

func done(atoms []structure.Atom) (structure.Structure, error) {
	if len(atoms) == 0 {
		return structure.Structure{}, fmt.Errorf("%w: no ATOM records found", domain.ErrInvalidInput)
	}
	return structure.New(atoms), nil
}

func parseAtom(line string) (structure.Atom, error) {
	if len(line) < colZEnd {
		return structure.Atom{}, fmt.Errorf(
			"%w: ATOM record too short (%d columns)", domain.ErrInvalidInput, len(line),
		)
	}

	name := strings.TrimSpace(line[colNameStart:colNameEnd])
	if name == "" {
		return structure.Atom{}, fmt.Errorf("%w: ATOM record with empty atom name", domain.ErrInvalidInput)
	}

	resIdx, err := strconv.Atoi(strings.TrimSpace(line[colResStart:colResEnd]))
	if err != nil {
		return structure.Atom{}, fmt.Errorf("%w: bad residue index: %v", domain.ErrInvalidInput, err)
	}

	var coord structure.Point
	for i, span := range [][2]int{{colXStart, colXEnd}, {colYStart, colYEnd}, {colZStart, colZEnd}} {
		v, err := strconv.ParseFloat(strings.TrimSpace(line[span[0]:span[1]]), 64)
		if err != nil {
			return structure.Atom{}, fmt.Errorf("%w: bad coordinate: %v", domain.ErrInvalidInput, err)
		}
		coord[i] = v
	}

	return structure.Atom{Name: name, ResidueIndex: resIdx, Coord: coord}, nil
}
