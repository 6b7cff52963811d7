// Package arc69 construye la metadata ARC-69 que viaja en la nota de la
// transacción de acuñado de un CarbonDocument.
package arc69

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/climatecoin/carbon-api/internal/domain/entity"
)

const (
	Standard = "arc69"

	MimeTypePDF = "application/pdf"

	DefaultDescription = "Climatecoin carbon document"

	// MaxNoteBytes tamaño máximo del campo note de una transacción Algorand.
	MaxNoteBytes = 1024
)

// ErrNoteTooLarge la metadata serializada no cabe en la nota.
var ErrNoteTooLarge = errors.New("arc69: metadata excede el tamaño de la nota")

// Properties atributos propios del crédito de carbono.
type Properties struct {
	SerialNumber *string `json:"Serial_Number"`
	Provider     string  `json:"Provider"`
}

// Metadata documento ARC-69.
type Metadata struct {
	Standard    string     `json:"standard"`
	Description string     `json:"description"`
	ExternalURL string     `json:"external_url"`
	MimeType    string     `json:"mime_type"`
	Properties  Properties `json:"properties"`
}

// Options permite sobreescribir los valores por defecto.
type Options struct {
	Standard    string
	Description string
	ExternalURL string
	MimeType    string
}

// Build arma la metadata base de un documento.
func Build(doc *entity.CarbonDocument, opts Options) (*Metadata, error) {
	if doc == nil {
		return nil, fmt.Errorf("arc69: documento nil")
	}
	m := &Metadata{
		Standard:    orDefault(opts.Standard, Standard),
		Description: orDefault(opts.Description, DefaultDescription+" "+doc.ID),
		ExternalURL: opts.ExternalURL,
		MimeType:    orDefault(opts.MimeType, MimeTypePDF),
		Properties: Properties{
			Provider: doc.RegistryName,
		},
	}
	if doc.SerialNumber != "" {
		sn := doc.SerialNumber
		m.Properties.SerialNumber = &sn
	}
	return m, nil
}

// Encode serializa la metadata para el campo note.
func Encode(m *Metadata) ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("arc69: serializar: %w", err)
	}
	if len(b) > MaxNoteBytes {
		return nil, ErrNoteTooLarge
	}
	return b, nil
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
