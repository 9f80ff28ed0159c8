package schema

import "strings"

// classifierTokens maps filename substrings to entity types. Order matters:
// the first matching token wins. Tokens mirror the publisher's shard naming
// (e.g. "K3241.K03200Y1.D50510.ESTABELE").
var classifierTokens = []struct {
	token string
	typ   Type
}{
	{"empre", TypeEmpresas},
	{"estabe", TypeEstabelecimentos},
	{"estable", TypeEstabelecimentos},
	{"socio", TypeSocios},
	{"simples", TypeSimples},
	{"pais", TypePaises},
	{"munic", TypeMunicipios},
	{"quals", TypeQualificacoes},
	{"natju", TypeNaturezas},
	{"cnae", TypeCnaes},
	{"moti", TypeMotivos},
}

// Classify maps a raw filename to an entity type using case-insensitive
// substring matching. Files that match no token classify as TypeUnknown and
// are excluded from processing; an unrecognized file must never abort a run.
func Classify(filename string) Type {
	name := strings.ToLower(filename)
	for _, ct := range classifierTokens {
		if strings.Contains(name, ct.token) {
			return ct.typ
		}
	}
	return TypeUnknown
}
