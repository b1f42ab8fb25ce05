package tokenize

import (
	"reflect"
	"testing"
)

func TestElementsBasic(t *testing.T) {
	got := Elements(`[a, [b,c], "x,y", d]`)
	want := []string{"a", "[b,c]", `"x,y"`, "d"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Elements() = %#v, want %#v", got, want)
	}
}

func TestElementsNestedArbitraryDepth(t *testing.T) {
	got := Elements(`[[1,[2,[3,4]]], "tail"]`)
	want := []string{"[1,[2,[3,4]]]", `"tail"`}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Elements() = %#v, want %#v", got, want)
	}
}

func TestElementsEscapesInStrings(t *testing.T) {
	got := Elements(`["a\"b", "c,d\\e"]`)
	want := []string{`"a\"b"`, `"c,d\\e"`}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Elements() = %#v, want %#v", got, want)
	}
}

func TestElementsDropsEmptyTokens(t *testing.T) {
	got := Elements(`[a, , b]`)
	want := []string{"a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Elements() = %#v, want %#v", got, want)
	}
}

func TestElementsCommaCountMatchesTokens(t *testing.T) {
	// fuzz-ish: balanced top-level commas + 1 should equal token count
	// for inputs with no nested brackets or strings containing commas.
	cases := []string{
		`[a]`,
		`[a,b]`,
		`[a,b,c,d,e]`,
	}
	for _, c := range cases {
		got := Elements(c)
		wantCount := 1
		for _, r := range c[1 : len(c)-1] {
			if r == ',' {
				wantCount++
			}
		}
		if len(got) != wantCount {
			t.Errorf("Elements(%q) returned %d tokens, want %d", c, len(got), wantCount)
		}
	}
}

func TestUnquoteString(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`"plain"`, "plain"},
		{`'single'`, "single"},
		{`"line\nbreak"`, "line\nbreak"},
		{`"tab\there"`, "tab\there"},
		{`"quote\"inside"`, `quote"inside`},
		{`'apost\'rophe'`, "apost'rophe"},
		{"noquotes", "noquotes"},
	}
	for _, tt := range tests {
		if got := UnquoteString(tt.in); got != tt.want {
			t.Errorf("UnquoteString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
