package arc69_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climatecoin/carbon-api/internal/domain/arc69"
	"github.com/climatecoin/carbon-api/internal/domain/entity"
)

func TestBuild_Defaults(t *testing.T) {
	doc := &entity.CarbonDocument{ID: "doc-1", SerialNumber: "VCS-001", RegistryName: "Verra"}

	m, err := arc69.Build(doc, arc69.Options{ExternalURL: "https://climatecoin.io"})
	require.NoError(t, err)

	assert.Equal(t, "arc69", m.Standard)
	assert.Equal(t, "Climatecoin carbon document doc-1", m.Description)
	assert.Equal(t, "application/pdf", m.MimeType)
	require.NotNil(t, m.Properties.SerialNumber)
	assert.Equal(t, "VCS-001", *m.Properties.SerialNumber)
	assert.Equal(t, "Verra", m.Properties.Provider)
}

func TestEncode_SerialNumberNull(t *testing.T) {
	m, err := arc69.Build(&entity.CarbonDocument{ID: "doc-2"}, arc69.Options{})
	require.NoError(t, err)

	note, err := arc69.Encode(m)
	require.NoError(t, err)
	assert.Contains(t, string(note), `"Serial_Number":null`)
	assert.Contains(t, string(note), `"Provider":""`)
}

func TestEncode_NotaDemasiadoGrande(t *testing.T) {
	m, err := arc69.Build(&entity.CarbonDocument{ID: "doc-3"}, arc69.Options{Description: strings.Repeat("x", 2000)})
	require.NoError(t, err)

	_, err = arc69.Encode(m)
	assert.ErrorIs(t, err, arc69.ErrNoteTooLarge)
}

func TestBuild_DocumentoNil(t *testing.T) {
	_, err := arc69.Build(nil, arc69.Options{})
	assert.Error(t, err)
}
