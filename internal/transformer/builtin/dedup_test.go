package builtin

import (
	"reflect"
	"testing"

	"cnpjetl/pkg/records"
)

func keyBasico(r records.Record) string { return r.String("cnpj_basico") }

func TestDeDupKeepFirst(t *testing.T) {
	in := []records.Record{
		{"cnpj_basico": "111", "razao_social": "A"},
		{"cnpj_basico": "111", "razao_social": "B"},
		{"cnpj_basico": "222", "razao_social": "C"},
	}
	got, dropped := DeDup{KeyOf: keyBasico}.Apply(in)
	want := []records.Record{
		{"cnpj_basico": "111", "razao_social": "A"},
		{"cnpj_basico": "222", "razao_social": "C"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v want %#v", got, want)
	}
	if dropped != 1 {
		t.Fatalf("dropped = %d, want 1", dropped)
	}
}

func TestDeDupNoDuplicates(t *testing.T) {
	in := []records.Record{
		{"cnpj_basico": "111"},
		{"cnpj_basico": "222"},
	}
	got, dropped := DeDup{KeyOf: keyBasico}.Apply(in)
	if dropped != 0 || len(got) != 2 {
		t.Fatalf("got %d records, dropped %d", len(got), dropped)
	}
}

func TestDeDupEmptyInput(t *testing.T) {
	got, dropped := DeDup{KeyOf: keyBasico}.Apply(nil)
	if len(got) != 0 || dropped != 0 {
		t.Fatalf("got %v dropped %d", got, dropped)
	}
}

func TestDeDupScopeIsOneCall(t *testing.T) {
	// Each Apply call is an independent scope: a duplicate split across two
	// calls (two chunks) survives. Only a single call over the combined data
	// removes it.
	chunk1 := []records.Record{{"cnpj_basico": "111"}}
	chunk2 := []records.Record{{"cnpj_basico": "111"}}

	d := DeDup{KeyOf: keyBasico}
	out1, _ := d.Apply(chunk1)
	out2, _ := d.Apply(chunk2)
	if len(out1)+len(out2) != 2 {
		t.Fatal("chunk-local dedup must not see across calls")
	}

	all, dropped := d.Apply(append(append([]records.Record{}, chunk1...), chunk2...))
	if len(all) != 1 || dropped != 1 {
		t.Fatalf("whole-dataset pass: kept %d dropped %d, want 1/1", len(all), dropped)
	}
}
