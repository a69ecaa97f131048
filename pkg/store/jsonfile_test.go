package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fintlab/cardledger/pkg/crypto"
	"github.com/fintlab/cardledger/pkg/domain"
)

func testResult() *domain.ScrapeResult {
	r := domain.NewScrapeResult("run-1")
	r.Append("1234", []*domain.Transaction{
		{Identifier: 1, Account: "1234", OriginalAmount: -10, ChargedAmount: -10},
		{Identifier: 2, Account: "1234", OriginalAmount: -20, ChargedAmount: -20},
	})
	return r
}

func TestJSONFileWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	err := NewJSONFile(path).Write(context.Background(), testResult())
	assert.Nil(t, err)

	data, err := os.ReadFile(path)
	assert.Nil(t, err)

	got := &domain.ScrapeResult{}
	assert.Nil(t, json.Unmarshal(data, got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Len(t, got.Accounts["1234"], 2)
}

func TestSealedJSONFileWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.sealed")

	err := NewSealedJSONFile(path, "correct horse battery").Write(context.Background(), testResult())
	assert.Nil(t, err)

	sealed, err := os.ReadFile(path)
	assert.Nil(t, err)

	// not plaintext on disk
	assert.NotContains(t, string(sealed), "run-1")

	plain, err := crypto.Open(string(sealed), "correct horse battery")
	assert.Nil(t, err)

	got := &domain.ScrapeResult{}
	assert.Nil(t, json.Unmarshal(plain, got))
	assert.Equal(t, "run-1", got.RunID)
}
