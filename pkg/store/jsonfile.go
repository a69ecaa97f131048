package store

import (
	"context"
	"encoding/json"
	"os"

	"github.com/fintlab/cardledger/pkg/crypto"
	"github.com/fintlab/cardledger/pkg/domain"
)

type JSONFile struct {
	filename string
}

func NewJSONFile(filename string) Store {
	return &JSONFile{filename: filename}
}

func (f *JSONFile) Write(ctx context.Context, result *domain.ScrapeResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return os.WriteFile(f.filename, data, 0644)
}

// SealedJSONFile keeps the ledger encrypted at rest; the file holds one
// sealed blob recoverable with the same passphrase.
type SealedJSONFile struct {
	filename   string
	passphrase string
}

func NewSealedJSONFile(filename, passphrase string) Store {
	return &SealedJSONFile{filename: filename, passphrase: passphrase}
}

func (f *SealedJSONFile) Write(ctx context.Context, result *domain.ScrapeResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	sealed, err := crypto.Seal(data, f.passphrase)
	if err != nil {
		return err
	}
	return os.WriteFile(f.filename, []byte(sealed), 0600)
}
