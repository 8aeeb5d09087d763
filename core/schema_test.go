package core

import (
	"errors"
	"strings"
	"testing"
)

func TestRecordSchemaValidate(t *testing.T) {
	tests := []struct {
		name    string
		schema  RecordSchema
		wantErr string
	}{
		{
			name:    "empty prefix",
			schema:  RecordSchema{Name: "x", Fields: []FieldSpec{{Index: 1, Name: "a", Type: FieldInt}}},
			wantErr: "empty prefix",
		},
		{
			name:    "no fields",
			schema:  RecordSchema{Name: "x", Prefix: "x"},
			wantErr: "no fields",
		},
		{
			name: "duplicate names",
			schema: RecordSchema{Name: "x", Prefix: "x", Fields: []FieldSpec{
				{Index: 1, Name: "a", Type: FieldInt},
				{Index: 2, Name: "a", Type: FieldInt},
			}},
			wantErr: "duplicate field name",
		},
		{
			name: "indices not ascending",
			schema: RecordSchema{Name: "x", Prefix: "x", Fields: []FieldSpec{
				{Index: 2, Name: "a", Type: FieldInt},
				{Index: 2, Name: "b", Type: FieldInt},
			}},
			wantErr: "not ascending",
		},
		{
			name: "unknown type",
			schema: RecordSchema{Name: "x", Prefix: "x", Fields: []FieldSpec{
				{Index: 1, Name: "a", Type: FieldType(9)},
			}},
			wantErr: "unknown type FieldType(9)",
		},
		{
			name: "unnamed field",
			schema: RecordSchema{Name: "x", Prefix: "x", Fields: []FieldSpec{
				{Index: 1, Type: FieldInt},
			}},
			wantErr: "has no name",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.schema.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestBuiltInSchemasAreValid(t *testing.T) {
	for _, ps := range PositionSchemas {
		if err := ps.Schema.Validate(); err != nil {
			t.Errorf("%s schema: %v", ps.Kind, err)
		}
		if ps.Schema.Prefix != ps.Kind.Tag() {
			t.Errorf("%s schema prefix = %q, want %q", ps.Kind, ps.Schema.Prefix, ps.Kind.Tag())
		}
	}
	if err := BeamSchema.Validate(); err != nil {
		t.Errorf("beam schema: %v", err)
	}
}

func TestMustValidatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for invalid schema")
		}
	}()
	RecordSchema{Name: "broken"}.MustValidate()
}

func TestDecodeIgnoresUnlistedWords(t *testing.T) {
	rec, err := BeamSchema.Decode("beams", 3, "sat 4 not even numbers 2 trailing")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rec.Int(fieldSatellite) != 4 || rec.Int(fieldUser) != 2 || rec.Line != 3 {
		t.Fatalf("record = %+v", rec)
	}
}

func TestDecodeMissingWord(t *testing.T) {
	_, err := BeamSchema.Decode("beams", 7, "sat 4 0 0")
	var recErr *RecordError
	if !errors.As(err, &recErr) {
		t.Fatalf("error %v is not a *RecordError", err)
	}
	if recErr.Field != fieldUser || recErr.Line != 7 || !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("RecordError = %+v", recErr)
	}
	if !strings.Contains(err.Error(), "beams line 7") {
		t.Errorf("message %q lacks source and line", err.Error())
	}
}
