// Package fasta reads and writes sequence records in FASTA format.
package fasta

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/domain"
)

// lineWidth is the sequence wrap width used when writing.
const lineWidth = 60

// Record is one FASTA entry: ">ID Description" followed by the sequence.
type Record struct {
	ID          string
	Description string
	Sequence    string
}

// Read parses all records from a FASTA stream. Sequence lines are
// concatenated and uppercased; blank lines are ignored.
func Read(r io.Reader) ([]Record, error) {
	var (
		records []Record
		current *Record
		seq     strings.Builder
	)

	flush := func() {
		if current != nil {
			current.Sequence = seq.String()
			records = append(records, *current)
			seq.Reset()
		}
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ">") {
			flush()
			id, desc, _ := strings.Cut(strings.TrimSpace(line[1:]), " ")
			if id == "" {
				return nil, fmt.Errorf("%w: line %d: header with empty id", domain.ErrInvalidInput, lineNo)
			}
			current = &Record{ID: id, Description: strings.TrimSpace(desc)}
			continue
		}

		if current == nil {
			return nil, fmt.Errorf("%w: line %d: sequence data before first header", domain.ErrInvalidInput, lineNo)
		}
		seq.WriteString(strings.ToUpper(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read fasta: %w", err)
	}
	flush()

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no records found", domain.ErrInvalidInput)
	}
	for _, rec := range records {
		if rec.Sequence == "" {
			return nil, fmt.Errorf("%w: record %q has no sequence", domain.ErrInvalidInput, rec.ID)
		}
	}
	return records, nil
}

// Write serializes records in FASTA format with wrapped sequence lines.
func Write(w io.Writer, records []Record) error {
	for _, rec := range records {
		if rec.ID == "" {
			return fmt.Errorf("%w: record with empty id", domain.ErrInvalidInput)
		}

		header := ">" + rec.ID
		if rec.Description != "" {
			header += " " + rec.Description
		}
		if _, err := fmt.Fprintln(w, header); err != nil {
			return fmt.Errorf("write fasta header: %w", err)
		}

		for start := 0; start < len(rec.Sequence); start += lineWidth {
			end := start + lineWidth
			if end > len(rec.Sequence) {
				end = len(rec.Sequence)
			}
			if _, err := fmt.Fprintln(w, rec.Sequence[start:end]); err != nil {
				return fmt.Errorf("write fasta sequence: %w", err)
			}
		}
	}
	return nil
}

// FromCandidate converts a (typically scored) candidate back into a sequence
// record, folding the score into the annotation the way the persisted top-K
// selection carries it.
func FromCandidate(c domain.Candidate) Record {
	desc := c.Description()
	if score, kind, ok := c.Score(); ok {
		tag := fmt.Sprintf("%s=%.6f", kind, score)
		if desc == "" {
			desc = tag
		} else {
			desc += " " + tag
		}
	}
	return Record{ID: c.ID(), Description: desc, Sequence: c.Sequence()}
}
