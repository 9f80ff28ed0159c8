package schema

import (
	"testing"

	"cnpjetl/pkg/records"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		want Type
	}{
		{"K3241.K03200Y1.D50510.ESTABELE", TypeEstabelecimentos},
		{"F.K03200$W.SIMPLES.csv.csv", TypeSimples},
		{"random_readme.pdf", TypeUnknown},
		{"K3241.K03200Y0.D50510.EMPRECSV.csv", TypeEmpresas},
		{"K3241.K03200Y5.D50510.SOCIOCSV", TypeSocios},
		{"F.K03200$Z.D50510.PAISCSV", TypePaises},
		{"F.K03200$Z.D50510.MUNICCSV", TypeMunicipios},
		{"F.K03200$Z.D50510.QUALSCSV", TypeQualificacoes},
		{"F.K03200$Z.D50510.NATJUCSV", TypeNaturezas},
		{"F.K03200$Z.D50510.CNAECSV", TypeCnaes},
		{"F.K03200$Z.D50510.MOTICSV", TypeMotivos},
		{"", TypeUnknown},
	}
	for _, c := range cases {
		if got := Classify(c.name); got != c.want {
			t.Errorf("Classify(%q) = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestClassifyIsCaseInsensitive(t *testing.T) {
	if got := Classify("estabele"); got != TypeEstabelecimentos {
		t.Errorf("lowercase: got %q", got)
	}
	if got := Classify("ESTABELE"); got != TypeEstabelecimentos {
		t.Errorf("uppercase: got %q", got)
	}
}

func TestLookupColumns(t *testing.T) {
	tab, ok := Lookup(TypeEstabelecimentos)
	if !ok {
		t.Fatal("estabelecimentos not registered")
	}
	if len(tab.Columns) != 30 {
		t.Fatalf("estabelecimentos has %d columns, want 30", len(tab.Columns))
	}
	if tab.Columns[0] != "cnpj_basico" || tab.Columns[29] != "data_situacao_especial" {
		t.Fatalf("unexpected column order: first=%q last=%q", tab.Columns[0], tab.Columns[29])
	}

	if _, ok := Lookup(TypeUnknown); ok {
		t.Fatal("TypeUnknown must not resolve to a table")
	}

	if got := len(All()); got != 10 {
		t.Fatalf("registry has %d tables, want 10", got)
	}
}

func TestIdentityKey(t *testing.T) {
	cases := []struct {
		typ  Type
		rec  records.Record
		want string
	}{
		{TypeEmpresas, records.Record{"cnpj_basico": "12345678"}, "12345678"},
		{TypeSimples, records.Record{"cnpj_basico": "12345678"}, "12345678"},
		{TypeEstabelecimentos,
			records.Record{"cnpj_basico": "12345678", "cnpj_ordem": "0001", "cnpj_dv": "95"},
			"12345678000195"},
		{TypeSocios,
			records.Record{"cnpj_basico": "12345678", "cnpj_cpf_socio": "***123456**"},
			"12345678|***123456**"},
		{TypeCnaes, records.Record{"codigo": "6201501", "descricao": "dev"}, "6201501"},
	}
	for _, c := range cases {
		if got := IdentityKey(c.typ, c.rec); got != c.want {
			t.Errorf("IdentityKey(%s) = %q, want %q", c.typ, got, c.want)
		}
	}
}

func TestIdentityKeyLookupFallback(t *testing.T) {
	// A lookup record without its codigo column falls back to the pipe-join
	// of all schema columns.
	rec := records.Record{"descricao": "ATIVA"}
	if got := IdentityKey(TypeMotivos, rec); got != "|ATIVA" {
		t.Errorf("fallback key = %q, want %q", got, "|ATIVA")
	}
}

func TestIdentityKeyIsPure(t *testing.T) {
	rec := records.Record{"cnpj_basico": "00000000", "cnpj_ordem": "0001", "cnpj_dv": "91"}
	a := IdentityKey(TypeEstabelecimentos, rec)
	b := IdentityKey(TypeEstabelecimentos, rec.Clone())
	if a != b {
		t.Fatalf("key not deterministic: %q vs %q", a, b)
	}
}
