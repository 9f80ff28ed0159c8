// Package schema is the static registry for the CNPJ open-data entity types.
//
// Each entity type carries an immutable, ordered column list taken from the
// Receita Federal layout documentation. Source files ship without a header
// row, so column identity comes solely from position. All columns are text:
// identifier columns must keep leading zeros and check digits, and numeric
// fields (e.g. capital_social) routinely contain locale-formatted or malformed
// values that must not be coerced during ingestion.
package schema

// Type identifies one of the fixed entity types in a dump.
type Type string

const (
	TypeEmpresas         Type = "empresas"
	TypeEstabelecimentos Type = "estabelecimentos"
	TypeSocios           Type = "socios"
	TypeSimples          Type = "simples"
	TypePaises           Type = "paises"
	TypeMunicipios       Type = "municipios"
	TypeQualificacoes    Type = "qualificacoes"
	TypeNaturezas        Type = "naturezas"
	TypeCnaes            Type = "cnaes"
	TypeMotivos          Type = "motivos"
	TypeUnknown          Type = "unknown"
)

// Table describes the on-disk layout of one entity type.
type Table struct {
	// Type is the entity type this table belongs to.
	Type Type

	// Columns is the ordered column list. Source fields map to columns by
	// position only.
	Columns []string
}

// lookupColumns is the shared layout of the reference tables.
var lookupColumns = []string{"codigo", "descricao"}

// tables is the registry, keyed by Type. Column lists and order are part of
// the output contract consumed by the dashboard and must not change.
var tables = map[Type]Table{
	TypeEmpresas: {
		Type: TypeEmpresas,
		Columns: []string{
			"cnpj_basico", "razao_social", "natureza_juridica",
			"qualificacao_responsavel", "capital_social",
			"porte_empresa", "ente_federativo_responsavel",
		},
	},
	TypeEstabelecimentos: {
		Type: TypeEstabelecimentos,
		Columns: []string{
			"cnpj_basico", "cnpj_ordem", "cnpj_dv", "identificador_matriz_filial",
			"nome_fantasia", "situacao_cadastral", "data_situacao_cadastral",
			"motivo_situacao_cadastral", "nome_cidade_exterior", "pais",
			"data_inicio_atividade", "cnae_fiscal_principal", "cnae_fiscal_secundaria",
			"tipo_logradouro", "logradouro", "numero", "complemento", "bairro",
			"cep", "uf", "municipio", "ddd_1", "telefone_1", "ddd_2", "telefone_2",
			"ddd_fax", "fax", "correio_eletronico", "situacao_especial",
			"data_situacao_especial",
		},
	},
	TypeSocios: {
		Type: TypeSocios,
		Columns: []string{
			"cnpj_basico", "identificador_socio", "nome_socio",
			"cnpj_cpf_socio", "qualificacao_socio", "data_entrada_sociedade",
			"pais", "representante_legal", "nome_representante",
			"qualificacao_representante_legal", "faixa_etaria",
		},
	},
	TypeSimples: {
		Type: TypeSimples,
		Columns: []string{
			"cnpj_basico", "opcao_simples", "data_opcao_simples",
			"data_exclusao_simples", "opcao_mei", "data_opcao_mei",
			"data_exclusao_mei",
		},
	},
	TypePaises:        {Type: TypePaises, Columns: lookupColumns},
	TypeMunicipios:    {Type: TypeMunicipios, Columns: lookupColumns},
	TypeQualificacoes: {Type: TypeQualificacoes, Columns: lookupColumns},
	TypeNaturezas:     {Type: TypeNaturezas, Columns: lookupColumns},
	TypeCnaes:         {Type: TypeCnaes, Columns: lookupColumns},
	TypeMotivos:       {Type: TypeMotivos, Columns: lookupColumns},
}

// Lookup returns the table for t. ok is false for TypeUnknown or any type
// without a registered layout; callers are expected to warn and skip.
func Lookup(t Type) (Table, bool) {
	tab, ok := tables[t]
	return tab, ok
}

// All returns every registered table. The slice is a copy; iteration order is
// the canonical type order used for processing and reporting.
func All() []Table {
	out := make([]Table, 0, len(types))
	for _, t := range types {
		out = append(out, tables[t])
	}
	return out
}

// types is the canonical processing order.
var types = []Type{
	TypeEmpresas, TypeEstabelecimentos, TypeSocios, TypeSimples,
	TypePaises, TypeMunicipios, TypeQualificacoes, TypeNaturezas,
	TypeCnaes, TypeMotivos,
}

// IsLookup reports whether t is one of the small reference tables.
func (t Type) IsLookup() bool {
	switch t {
	case TypePaises, TypeMunicipios, TypeQualificacoes, TypeNaturezas, TypeCnaes, TypeMotivos:
		return true
	}
	return false
}
