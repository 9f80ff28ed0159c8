package schema

import (
	"strings"

	"cnpjetl/pkg/records"
)

// IdentityKey derives the deduplication key for one record of type t.
//
// The function is pure and depends only on the record's own field values, so
// the chunk-local pass and the whole-file pass always agree on what counts as
// a duplicate.
//
// Keys per type:
//   - empresas, simples:  cnpj_basico
//   - estabelecimentos:   cnpj_basico + cnpj_ordem + cnpj_dv (the full
//     registry number)
//   - socios:             cnpj_basico + "|" + cnpj_cpf_socio ('|' does not
//     occur in either field)
//   - lookup tables:      codigo; when the codigo column is absent, the
//     pipe-joined concatenation of all columns in schema order
func IdentityKey(t Type, rec records.Record) string {
	switch t {
	case TypeEmpresas, TypeSimples:
		return rec.String("cnpj_basico")
	case TypeEstabelecimentos:
		return rec.String("cnpj_basico") + rec.String("cnpj_ordem") + rec.String("cnpj_dv")
	case TypeSocios:
		return rec.String("cnpj_basico") + "|" + rec.String("cnpj_cpf_socio")
	default:
		if _, ok := rec["codigo"]; ok {
			return rec.String("codigo")
		}
		tab, ok := Lookup(t)
		if !ok {
			return ""
		}
		parts := make([]string, len(tab.Columns))
		for i, c := range tab.Columns {
			parts[i] = rec.String(c)
		}
		return strings.Join(parts, "|")
	}
}
