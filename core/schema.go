package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/signalsfoundry/beamscene/model"
)

// FieldType is the expected type of a record word.
type FieldType int

const (
	FieldString FieldType = iota
	FieldInt
)

func (t FieldType) String() string {
	switch t {
	case FieldString:
		return "string"
	case FieldInt:
		return "int"
	default:
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
}

// FieldSpec names one word of a space-separated record.
type FieldSpec struct {
	Index int
	Name  string
	Type  FieldType
}

// RecordSchema describes a line-oriented record: the prefix that
// classifies a line and the words read from it. Words not listed are
// ignored.
type RecordSchema struct {
	Name   string
	Prefix string
	Fields []FieldSpec
}

// Validate checks that field indices are non-negative and strictly
// ascending, names are unique and types are known.
func (s RecordSchema) Validate() error {
	if s.Prefix == "" {
		return fmt.Errorf("schema %s: empty prefix", s.Name)
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema %s: no fields", s.Name)
	}
	seen := make(map[string]struct{}, len(s.Fields))
	prev := -1
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("schema %s: field at index %d has no name", s.Name, f.Index)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("schema %s: duplicate field name %q", s.Name, f.Name)
		}
		seen[f.Name] = struct{}{}
		if f.Index <= prev {
			return fmt.Errorf("schema %s: field %q index %d not ascending", s.Name, f.Name, f.Index)
		}
		prev = f.Index
		if f.Type != FieldString && f.Type != FieldInt {
			return fmt.Errorf("schema %s: field %q has unknown type %v", s.Name, f.Name, f.Type)
		}
	}
	return nil
}

// MustValidate panics if the schema is invalid. Used for package-level
// schema declarations.
func (s RecordSchema) MustValidate() RecordSchema {
	if err := s.Validate(); err != nil {
		panic(err)
	}
	return s
}

// Matches reports whether line is classified as this record kind.
func (s RecordSchema) Matches(line string) bool {
	return strings.HasPrefix(line, s.Prefix)
}

// Record holds the decoded words of one line.
type Record struct {
	Line  int
	words map[string]string
	ints  map[string]int64
}

// Int returns a decoded integer field.
func (r Record) Int(name string) int64 { return r.ints[name] }

// Text returns a decoded string field.
func (r Record) Text(name string) string { return r.words[name] }

// Decode splits line on single spaces and reads every schema field.
// A missing word or an unparseable integer is a malformed record.
func (s RecordSchema) Decode(source string, lineNo int, line string) (Record, error) {
	words := strings.Split(line, " ")
	rec := Record{
		Line:  lineNo,
		words: make(map[string]string, len(s.Fields)),
		ints:  make(map[string]int64, len(s.Fields)),
	}
	for _, f := range s.Fields {
		if f.Index >= len(words) {
			return Record{}, &RecordError{
				Source: source,
				Line:   lineNo,
				Field:  f.Name,
				Text:   line,
				Err:    fmt.Errorf("%w: %s record has %d words, need word %d", ErrMalformedRecord, s.Name, len(words), f.Index),
			}
		}
		word := words[f.Index]
		switch f.Type {
		case FieldInt:
			v, err := strconv.ParseInt(word, 10, 64)
			if err != nil {
				return Record{}, &RecordError{
					Source: source,
					Line:   lineNo,
					Field:  f.Name,
					Text:   word,
					Err:    fmt.Errorf("%w: not a base-10 integer", ErrMalformedRecord),
				}
			}
			rec.ints[f.Name] = v
		default:
			rec.words[f.Name] = word
		}
	}
	return rec, nil
}

// Field names shared by the schemas below.
const (
	fieldID        = "id"
	fieldX         = "x_km"
	fieldY         = "y_km"
	fieldZ         = "z_km"
	fieldSatellite = "satellite"
	fieldUser      = "user"
)

func positionSchema(k model.Kind) RecordSchema {
	return RecordSchema{
		Name:   strings.ToLower(k.String()),
		Prefix: k.Tag(),
		Fields: []FieldSpec{
			{Index: 1, Name: fieldID, Type: FieldString},
			{Index: 2, Name: fieldX, Type: FieldInt},
			{Index: 3, Name: fieldY, Type: FieldInt},
			{Index: 4, Name: fieldZ, Type: FieldInt},
		},
	}.MustValidate()
}

// PositionSchemas are checked in this order; the first match wins.
var PositionSchemas = []struct {
	Kind   model.Kind
	Schema RecordSchema
}{
	{model.KindUser, positionSchema(model.KindUser)},
	{model.KindSatellite, positionSchema(model.KindSatellite)},
	{model.KindInterferer, positionSchema(model.KindInterferer)},
}

// BeamSchema reads a beam assignment: 1-based satellite and user indices.
var BeamSchema = RecordSchema{
	Name:   "beam",
	Prefix: "sat",
	Fields: []FieldSpec{
		{Index: 1, Name: fieldSatellite, Type: FieldInt},
		{Index: 5, Name: fieldUser, Type: FieldInt},
	},
}.MustValidate()
