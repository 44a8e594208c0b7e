package clpir_test

import (
	"testing"

	"github.com/clp-ir/clpir"
)

func TestRenderNested(t *testing.T) {
	rec := obj(
		"name", strNode("al"),
		"age", intNode(30),
		"tags", arrNode(strNode("x"), intNode(1)),
		"address", nilNode(),
	)
	got, err := clpir.Render(rec)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := `{"name":"al","age":30,"tags":["x",1],"address":null}`
	if got != want {
		t.Fatalf("Render = %s, want %s", got, want)
	}
}

func TestRenderEscapesControlCharacters(t *testing.T) {
	rec := obj("s", strNode("a\tb\nc\"d\\e"))
	got, err := clpir.Render(rec)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := `{"s":"a\tb\nc\"d\\e"}`
	if got != want {
		t.Fatalf("Render = %s, want %s", got, want)
	}
}
