package object

import (
	"strings"
	"testing"
)

func person() *RecordType {
	return &RecordType{Fields: []RecordField{
		{Name: "id", Kind: KindInt, Mandatory: true},
		{Name: "name", Kind: KindString, MaxLength: 4, Default: &String{Value: "anon"}},
		{Name: "tags", Kind: KindJSON, Shape: MapShape{}},
	}}
}

func TestRecordConform(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`{"id": 1}`, `{"id":1,"name":"anon"}`},
		{`{"ID": 2, "Name": "bo"}`, `{"ID":2,"Name":"bo"}`},
		{`{"id": 3, "tags": {"a": 1}}`, `{"id":3,"name":"anon","tags":{"a":1}}`},
		{`{"id": 4, "name": null}`, `{"id":4,"name":null}`},
	}
	for i, tt := range tests {
		j, err := ParseJSON(tt.input)
		if err != nil {
			t.Fatalf("tests[%d] - ParseJSON: %v", i, err)
		}
		got, cerr := person().Conform(j)
		if cerr != nil {
			t.Fatalf("tests[%d] - unexpected error: %s", i, cerr)
		}
		if got.Inspect() != tt.expected {
			t.Errorf("tests[%d] - expected=%s, got=%s", i, tt.expected, got.Inspect())
		}
	}

	if got, err := person().Conform(NULL); err != nil || got != NULL {
		t.Fatalf("null should conform as null. got=%v, %v", got, err)
	}
}

func TestRecordConformFailures(t *testing.T) {
	tests := []struct {
		input    string
		typ      ErrorType
		category string
		message  string
	}{
		{`{}`, InterpreterError, ValidationError, "mandatory field 'id' is missing"},
		{`{"id": null}`, InterpreterError, ValidationError, "cannot be null"},
		{`{"id": 1, "name": "toolong"}`, InterpreterError, ValidationError, "exceeds max length 4"},
		{`{"id": 1, "age": 3}`, TypeError, "", "field 'age' is not declared"},
		{`{"id": "x"}`, TypeError, "", "field 'id'"},
		{`{"id": 1, "tags": [1]}`, TypeError, "", "json object"},
		{`[1]`, TypeError, "", "record value"},
	}
	for i, tt := range tests {
		j, perr := ParseJSON(tt.input)
		if perr != nil {
			t.Fatalf("tests[%d] - ParseJSON: %v", i, perr)
		}
		_, err := person().Conform(j)
		if err == nil {
			t.Errorf("tests[%d] - expected an error for %s", i, tt.input)
			continue
		}
		if err.Type != tt.typ || (tt.category != "" && err.Category != tt.category) {
			t.Errorf("tests[%d] - wrong error. got=%s", i, err)
		}
		if !strings.Contains(err.Message, tt.message) {
			t.Errorf("tests[%d] - message %q does not contain %q", i, err.Message, tt.message)
		}
	}
}

func TestArrayShapeReportsElement(t *testing.T) {
	arr := NewArrayOf([]Object{
		&JSON{Value: map[string]any{"id": int64(1)}},
		&JSON{Value: map[string]any{}},
	})
	_, err := ArrayShape{Elem: person()}.Conform(arr)
	if err == nil || !strings.HasPrefix(err.Message, "element 1:") {
		t.Fatalf("expected element 1 failure. got=%v", err)
	}
}

func TestLookupKey(t *testing.T) {
	m := map[string]any{"Name": 1, "name": 2, "Other": 3}
	if k, ok := LookupKey(m, "name"); !ok || k != "name" {
		t.Fatalf("exact match should win. got=%q", k)
	}
	if k, ok := LookupKey(m, "other"); !ok || k != "Other" {
		t.Fatalf("case-insensitive match failed. got=%q", k)
	}
	if _, ok := LookupKey(m, "missing"); ok {
		t.Fatalf("missing key found")
	}
}
