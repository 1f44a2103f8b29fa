package classify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/docvec/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfer(t *testing.T) {
	tests := []struct {
		path string
		want core.DocType
	}{
		{"/docs/Considerations.pdf", core.DocTypeConsiderations},
		{"Sample Conversations.pdf", core.DocTypeConversations},
		{"Bank Account.pdf", core.DocTypeBank},
		{"bank details 2024.pdf", core.DocTypeBank},
		{"bank holidays.pdf", core.DocTypeGeneral},
		{"Store Address.pdf", core.DocTypeAddress},
		{"locations.txt", core.DocTypeAddress},
		{"Promotions.pdf", core.DocTypePromotions},
		{"summer promo.txt", core.DocTypePromotions},
		{"Live Stock.pdf", core.DocTypeInventory},
		{"stock list.pdf", core.DocTypeInventory},
		{"Price Sheet.pdf", core.DocTypeInventory},
		{"menu.pdf", core.DocTypeGeneral},
		{"conversation about promotions.pdf", core.DocTypeConversations},
		// extension is stripped before matching
		{"notes.price", core.DocTypeGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Infer(tt.path))
		})
	}
}

func TestRule_Matches(t *testing.T) {
	r := Rule{AllOf: []string{"bank", "detail"}}
	assert.True(t, r.Matches("bank details"))
	assert.False(t, r.Matches("bank"))
	assert.False(t, r.Matches("details"))

	empty := Rule{}
	assert.False(t, empty.Matches("anything"))
}

func TestParseRules(t *testing.T) {
	data := []byte(`
rules:
  - doc_type: promotions
    any_of: [Deal, " offer "]
  - doc_type: bank
    all_of: [iban, transfer]
`)
	rules, err := ParseRules(data)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, []string{"deal", "offer"}, rules[0].AnyOf)

	c := New(rules...)
	assert.Equal(t, core.DocTypePromotions, c.Infer("Weekend Deals.pdf"))
	assert.Equal(t, core.DocTypeBank, c.Infer("IBAN for transfer.txt"))
	assert.Equal(t, core.DocTypeGeneral, c.Infer("Promotions.pdf"))
}

func TestParseRules_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"no rules", "rules: []", ErrNoRules},
		{"unknown doc type", "rules:\n  - doc_type: recipes\n    any_of: [x]", core.ErrInvalidDocType},
		{"empty rule", "rules:\n  - doc_type: bank", ErrEmptyRule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules([]byte(tt.data))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := ParseRules([]byte("rules: [:"))
	assert.Error(t, err)
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - doc_type: address\n    any_of: [directions]\n"), 0o644))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, core.DocTypeAddress, New(rules...).Infer("Directions.pdf"))

	_, err = LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestIsCanonicalKeyword(t *testing.T) {
	assert.True(t, IsCanonicalKeyword("Bank Account.pdf"))
	assert.True(t, IsCanonicalKeyword("LIVE STOCK.pdf"))
	assert.True(t, IsCanonicalKeyword("promo-june.pdf"))
	assert.False(t, IsCanonicalKeyword("menu.pdf"))
	assert.False(t, IsCanonicalKeyword("price sheet.pdf"))
}
