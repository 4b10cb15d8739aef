package fasta

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/domain"
)

func TestRead_MultiRecord(t *testing.T) {
	in := `>ref-1 wild type
MKVLAT
GQRS

>cand-1
mkvl
`
	records, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != "ref-1" || records[0].Description != "wild type" {
		t.Errorf("record 0 header: %+v", records[0])
	}
	if records[0].Sequence != "MKVLATGQRS" {
		t.Errorf("record 0 sequence: %q", records[0].Sequence)
	}
	if records[1].ID != "cand-1" || records[1].Description != "" {
		t.Errorf("record 1 header: %+v", records[1])
	}
	if records[1].Sequence != "MKVL" {
		t.Errorf("record 1 sequence not uppercased: %q", records[1].Sequence)
	}
}

func TestRead_Errors(t *testing.T) {
	cases := map[string]string{
		"sequence before header": "MKVL\n>x\nMKVL\n",
		"empty id":               "> description only\nMKVL\n",
		"empty input":            "",
		"header without seq":     ">only-header\n",
	}
	for name, in := range cases {
		if _, err := Read(strings.NewReader(in)); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", name, err)
		}
	}
}

func TestWrite_WrapsSequence(t *testing.T) {
	long := strings.Repeat("MKVLATGQRS", 13) // 130 residues
	var buf bytes.Buffer
	err := Write(&buf, []Record{{ID: "cand-9", Description: "top hit", Sequence: long}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if lines[0] != ">cand-9 top hit" {
		t.Errorf("header line: %q", lines[0])
	}
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 sequence lines, got %d", len(lines))
	}
	if len(lines[1]) != 60 || len(lines[3]) != 10 {
		t.Errorf("bad wrapping: lens %d, %d, %d", len(lines[1]), len(lines[2]), len(lines[3]))
	}

	// Round trip.
	records, err := Read(&buf)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if records[0].Sequence != long {
		t.Error("sequence did not round-trip")
	}
}

func TestFromCandidate_AnnotatesScore(t *testing.T) {
	c, err := domain.NewCandidate("cand-3", "MKVLAT", "variant 3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec := FromCandidate(c.WithScore(0.125, domain.ScoreCosine))
	if rec.Description != "variant 3 cosine=0.125000" {
		t.Errorf("description: %q", rec.Description)
	}

	rec = FromCandidate(c)
	if rec.Description != "variant 3" {
		t.Errorf("unscored description: %q", rec.Description)
	}
}
