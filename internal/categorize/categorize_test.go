package categorize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledgerprep/internal/frame"
	"github.com/cleared-dev/ledgerprep/internal/model"
)

func TestDefaultRules_Assign(t *testing.T) {
	rs := DefaultRules()
	tests := []struct {
		desc string
		want string
	}{
		{"Compra en MERCADONA 123", "Supermercado"},
		{"COMPRA POS SUPER 99 ALBROOK", "Supermercado"},
		{"  Pizzeria Napoli ", "Restaurantes"},
		{"BAR PEPE", "Bares / Cafés"},
		{"barcelona tickets", Fallback},
		{"AMAZON PRIME", "Compras Online"},
		{"Spotify AB", "Suscripciones"},
		{"Clinica Dental Sur", "Salud"},
		{"Peluquería Estética", "Cuidado Personal"},
		{"UBER TRIP", "Transporte / Viajes"},
		{"Bizum enviado", "Transferencias"},
		{"Transferencia recibida NOMINA", "Transferencias"},
		{"Transferencias varias", Fallback},
		{"RETIRO ATM 0042", "ATM / Efectivo"},
		{"Ingreso  contra cuenta", "ATM / Efectivo"},
		{"", Fallback},
		{"something unknown", Fallback},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			assert.Equal(t, tt.want, rs.Assign(tt.desc))
		})
	}
}

func TestRuleset_Explain(t *testing.T) {
	rs := DefaultRules()

	m := rs.Explain("Compra en MERCADONA 123")
	assert.Equal(t, Match{Category: "Supermercado", Pattern: "mercadona"}, m)

	m = rs.Explain("nothing")
	assert.Equal(t, Match{Category: Fallback}, m)
}

func TestRuleset_OrderWins(t *testing.T) {
	rs, err := NewRuleset([]Category{
		{Name: "First", Patterns: []string{"b", "a"}},
		{Name: "Second", Patterns: []string{"a"}},
	}, "Other")
	require.NoError(t, err)

	assert.Equal(t, Match{Category: "First", Pattern: "a"}, rs.Explain("xa"))
	assert.Equal(t, Match{Category: "First", Pattern: "b"}, rs.Explain("ab"))
	assert.Equal(t, []string{"First", "Second", "Other"}, rs.Vocabulary())
}

func TestNewRuleset_Errors(t *testing.T) {
	_, err := NewRuleset(nil, "")
	assert.Error(t, err)

	_, err = NewRuleset([]Category{{Name: "A"}, {Name: "A"}}, "Other")
	assert.ErrorContains(t, err, "duplicate")

	_, err = NewRuleset([]Category{{Name: "Other"}}, "Other")
	assert.ErrorContains(t, err, "duplicate")

	_, err = NewRuleset([]Category{{Name: ""}}, "Other")
	assert.Error(t, err)

	_, err = NewRuleset([]Category{{Name: "A", Patterns: []string{"("}}}, "Other")
	assert.ErrorContains(t, err, `"("`)
}

func TestRules_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	require.NoError(t, SaveRules(path, DefaultRules()))

	got, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultCategories(), got.Categories())
	assert.Equal(t, Fallback, got.Fallback())
}

func TestLoadRules_DefaultFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	data := "categories:\n  - name: Coffee\n    patterns: [\"starbucks\"]\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	rs, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, "Coffee", rs.Assign("STARBUCKS #12"))
	assert.Equal(t, Fallback, rs.Assign("tea"))
}

func TestLoadRules_Errors(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories: [\n"), 0o644))
	_, err = LoadRules(path)
	assert.ErrorContains(t, err, "parsing rules")
}

func TestCategorize(t *testing.T) {
	f := frame.New(model.ColDate, model.ColDescription)
	f.Append(nil, "Compra en MERCADONA 123")
	f.Append(nil, nil)
	f.Append(nil, "Netflix")

	out, err := Categorize(f, DefaultRules())
	require.NoError(t, err)
	assert.Equal(t, "Supermercado", out.Row(0).String(model.ColCategory))
	assert.Equal(t, Fallback, out.Row(1).String(model.ColCategory))
	assert.Equal(t, Fallback, out.Row(2).String(model.ColCategory))
	assert.False(t, f.Has(model.ColCategory))

	vocab := DefaultRules().Vocabulary()
	for i := 0; i < out.Len(); i++ {
		assert.Contains(t, vocab, out.Row(i).String(model.ColCategory))
	}
}

func TestCategorize_DescriptionAlias(t *testing.T) {
	f := frame.New("Transaction Description")
	f.Append("uber eats")

	out, err := Categorize(f, DefaultRules())
	require.NoError(t, err)
	assert.Equal(t, "Transporte / Viajes", out.Row(0).String(model.ColCategory))
}

func TestCategorize_MissingDescription(t *testing.T) {
	f := frame.New("concepto")
	_, err := Categorize(f, DefaultRules())

	var mce *model.MissingColumnError
	require.ErrorAs(t, err, &mce)
	assert.Equal(t, model.ColDescription, mce.Column)
}
