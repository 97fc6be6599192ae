package cipher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/hashicorp/go-multierror"
)

func testRecipe(name string) *Recipe {
	return &Recipe{
		Name:        name,
		Description: "A test recipe",
		Tags:        []string{"test", "example"},
		Pipeline: Pipeline{
			Operations: []OperationConfig{
				{Name: "xor_single", Parameters: map[string]interface{}{"key": "0x20"}},
				{Name: "hex_encode"},
			},
			Reversible: true,
		},
	}
}

func TestBuiltinRecipes(t *testing.T) {
	recipes, err := BuiltinRecipes()
	if err != nil {
		t.Fatalf("BuiltinRecipes: %v", err)
	}

	var names []string
	for _, r := range recipes {
		names = append(names, r.Name)
		if !r.Builtin {
			t.Errorf("recipe %s not marked builtin", r.Name)
		}
	}
	want := []string{"hex_to_base64", "fixed_xor_challenge", "crack_hex"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("builtin recipes mismatch (-want +got):\n%s", diff)
	}
}

func TestBuiltinRecipesExecute(t *testing.T) {
	rm := NewRecipeManager("")
	ctx := context.Background()

	tests := []struct {
		recipe   string
		input    string
		expected string
	}{
		{
			recipe:   "hex_to_base64",
			input:    "49276d206b696c6c696e6720796f757220627261696e206c696b65206120706f69736f6e6f7573206d757368726f6f6d",
			expected: "SSdtIGtpbGxpbmcgeW91ciBicmFpbiBsaWtlIGEgcG9pc29ub3VzIG11c2hyb29t",
		},
		{
			recipe:   "fixed_xor_challenge",
			input:    "1c0111001f010100061a024b53535009181c",
			expected: "746865206b696420646f6e277420706c6179",
		},
		{
			recipe:   "crack_hex",
			input:    "1b37373331363f78151b7f2b783431333d78397828372d363c78373e783a393b3736",
			expected: "Cooking MC's like a pound of bacon",
		},
	}

	for _, tt := range tests {
		t.Run(tt.recipe, func(t *testing.T) {
			r, ok := rm.GetRecipe(tt.recipe)
			if !ok {
				t.Fatalf("recipe %s missing", tt.recipe)
			}
			out, err := r.Pipeline.Execute(ctx, []byte(tt.input))
			if err != nil {
				t.Fatalf("execute: %v", err)
			}
			if string(out) != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, out)
			}
		})
	}
}

func TestRecipeManagerSaveAndGet(t *testing.T) {
	rm := NewRecipeManager("")
	recipe := testRecipe("test-recipe")

	if err := rm.SaveRecipe(recipe); err != nil {
		t.Fatalf("SaveRecipe failed: %v", err)
	}

	retrieved, exists := rm.GetRecipe("test-recipe")
	if !exists {
		t.Fatal("recipe should exist")
	}
	if retrieved.Description != recipe.Description {
		t.Errorf("expected description %q, got %q", recipe.Description, retrieved.Description)
	}
	if retrieved.CreatedAt == "" || retrieved.UpdatedAt == "" {
		t.Error("timestamps should be set")
	}
}

func TestRecipeManagerRejectsInvalid(t *testing.T) {
	rm := NewRecipeManager("")

	if err := rm.SaveRecipe(&Recipe{Pipeline: testRecipe("x").Pipeline}); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := rm.SaveRecipe(&Recipe{Name: "empty"}); err == nil {
		t.Fatal("expected error for recipe without operations")
	}
}

func TestRecipeManagerListSorted(t *testing.T) {
	rm := NewRecipeManager("")
	rm.SaveRecipe(testRecipe("aaa"))
	rm.SaveRecipe(testRecipe("zzz"))

	var names []string
	for _, r := range rm.ListRecipes() {
		names = append(names, r.Name)
	}
	want := []string{"aaa", "crack_hex", "fixed_xor_challenge", "hex_to_base64", "zzz"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("ListRecipes mismatch (-want +got):\n%s", diff)
	}
}

func TestRecipeManagerDelete(t *testing.T) {
	rm := NewRecipeManager("")
	rm.SaveRecipe(testRecipe("to-delete"))

	if err := rm.DeleteRecipe("to-delete"); err != nil {
		t.Fatalf("DeleteRecipe failed: %v", err)
	}
	if _, exists := rm.GetRecipe("to-delete"); exists {
		t.Fatal("recipe should be deleted")
	}

	if err := rm.DeleteRecipe("crack_hex"); err == nil {
		t.Fatal("expected error deleting builtin recipe")
	}
}

func TestRecipeManagerPersistence(t *testing.T) {
	tmpDir := t.TempDir()

	rm1 := NewRecipeManager(tmpDir)
	original := testRecipe("persistent recipe")
	if err := rm1.SaveRecipe(original); err != nil {
		t.Fatalf("SaveRecipe failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "persistent_recipe.json")); err != nil {
		t.Fatalf("recipe file not written: %v", err)
	}

	rm2 := NewRecipeManager(tmpDir)
	if err := rm2.LoadRecipes(); err != nil {
		t.Fatalf("LoadRecipes failed: %v", err)
	}

	loaded, exists := rm2.GetRecipe("persistent recipe")
	if !exists {
		t.Fatal("recipe should be loaded from disk")
	}
	// JSON turns the string parameter back into a string and keeps order.
	if diff := cmp.Diff(original, loaded, cmpopts.IgnoreFields(Recipe{}, "Builtin")); diff != "" {
		t.Errorf("loaded recipe mismatch (-want +got):\n%s", diff)
	}

	out, err := loaded.Pipeline.Execute(context.Background(), []byte("A"))
	if err != nil {
		t.Fatalf("execute loaded recipe: %v", err)
	}
	if string(out) != "61" {
		t.Errorf("expected 61, got %s", out)
	}

	if err := rm2.DeleteRecipe("persistent recipe"); err != nil {
		t.Fatalf("DeleteRecipe failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "persistent_recipe.json")); !os.IsNotExist(err) {
		t.Error("recipe file should be removed")
	}
}

func TestRecipeManagerLoadAggregatesErrors(t *testing.T) {
	tmpDir := t.TempDir()

	rm := NewRecipeManager(tmpDir)
	rm.SaveRecipe(testRecipe("good"))

	os.WriteFile(filepath.Join(tmpDir, "broken.json"), []byte("{not json"), 0644)
	os.WriteFile(filepath.Join(tmpDir, "nameless.json"), []byte(`{"description":"no name"}`), 0644)
	os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("ignored"), 0644)

	fresh := NewRecipeManager(tmpDir)
	err := fresh.LoadRecipes()
	if err == nil {
		t.Fatal("expected load errors")
	}

	merr, ok := err.(*multierror.Error)
	if !ok {
		t.Fatalf("expected *multierror.Error, got %T", err)
	}
	if len(merr.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(merr.Errors), err)
	}
	if !strings.Contains(err.Error(), "broken.json") || !strings.Contains(err.Error(), "nameless.json") {
		t.Errorf("error should name both bad files: %v", err)
	}

	if _, ok := fresh.GetRecipe("good"); !ok {
		t.Error("good recipe should load despite bad neighbours")
	}
}

func TestRecipeManagerSearch(t *testing.T) {
	rm := NewRecipeManager("")

	tests := []struct {
		query string
		want  []string
	}{
		{query: "CRACK", want: []string{"crack_hex"}},
		{query: "xor", want: []string{"crack_hex", "fixed_xor_challenge"}},
		{query: "base64", want: []string{"hex_to_base64"}},
		{query: "nothing-matches", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got []string
			for _, r := range rm.SearchRecipes(tt.query) {
				got = append(got, r.Name)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("search mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", "simple"},
		{"with spaces", "with_spaces"},
		{"with-dash_under", "with-dash_under"},
		{"../../etc/passwd", "etcpasswd"},
		{"!!!", "recipe"},
	}

	for _, tt := range tests {
		if got := sanitizeFilename(tt.input); got != tt.expected {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
