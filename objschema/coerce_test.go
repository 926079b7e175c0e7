package objschema

import (
	"reflect"
	"testing"
)

func TestCoerceNumericString(t *testing.T) {
	s := lessonSchema()
	coerced, issues, ok := s.Coerce(map[string]any{
		"title":    "Intro",
		"duration": "45",
		"topics":   []any{"syntax"},
	})
	if !ok {
		t.Fatalf("expected coercion to succeed, issues: %v", issues)
	}

	want := map[string]any{
		"title":    "Intro",
		"duration": float64(45),
		"topics":   []any{"syntax"},
	}
	if !reflect.DeepEqual(coerced, want) {
		t.Errorf("coerced value deep-equal failed:\n got %#v\nwant %#v", coerced, want)
	}
	if len(issues) == 0 {
		t.Error("expected the applied coercion to be recorded")
	}
}

func TestCoerceBooleanString(t *testing.T) {
	s := lessonSchema()
	coerced, _, ok := s.Coerce(map[string]any{
		"title":     "Intro",
		"duration":  float64(45),
		"published": "true",
		"topics":    []any{"syntax"},
	})
	if !ok {
		t.Fatal("expected coercion to succeed")
	}
	obj := coerced.(map[string]any)
	if obj["published"] != true {
		t.Errorf("expected published=true, got %v", obj["published"])
	}
}

func TestCoerceSingleValueToArray(t *testing.T) {
	s := lessonSchema()
	coerced, _, ok := s.Coerce(map[string]any{
		"title":    "Intro",
		"duration": float64(45),
		"topics":   "syntax",
	})
	if !ok {
		t.Fatal("expected coercion to succeed")
	}
	obj := coerced.(map[string]any)
	if !reflect.DeepEqual(obj["topics"], []any{"syntax"}) {
		t.Errorf("expected single value wrapped in array, got %#v", obj["topics"])
	}
}

func TestCoerceArrayElements(t *testing.T) {
	s := New("scores", Field{Name: "values", Kind: KindArray, Elem: &Field{Kind: KindInt}})
	coerced, _, ok := s.Coerce(map[string]any{
		"values": []any{"1", float64(2), "3"},
	})
	if !ok {
		t.Fatal("expected coercion to succeed")
	}
	obj := coerced.(map[string]any)
	if !reflect.DeepEqual(obj["values"], []any{float64(1), float64(2), float64(3)}) {
		t.Errorf("unexpected coerced array %#v", obj["values"])
	}
}

func TestCoerceFailureStillCollectsIssues(t *testing.T) {
	s := lessonSchema()
	_, issues, ok := s.Coerce(map[string]any{
		"title":    "Intro",
		"duration": "not a number",
		"topics":   []any{"syntax"},
	})
	if ok {
		t.Fatal("expected coercion to fail for a non-numeric string")
	}
	if len(issues) == 0 {
		t.Error("issues must be collected even when coercion fails")
	}
}

func TestCoerceDoesNotInventStrings(t *testing.T) {
	// A number where a string is expected is a real violation, not a near-miss.
	s := lessonSchema()
	_, _, ok := s.Coerce(map[string]any{
		"title":    42,
		"duration": float64(45),
		"topics":   []any{"syntax"},
	})
	if ok {
		t.Fatal("expected coercion to refuse number-to-string conversion")
	}
}

func TestCoerceNonObject(t *testing.T) {
	s := lessonSchema()
	_, issues, ok := s.Coerce("just text")
	if ok {
		t.Fatal("expected failure for non-object value")
	}
	if len(issues) == 0 {
		t.Error("expected issues for non-object value")
	}
}
