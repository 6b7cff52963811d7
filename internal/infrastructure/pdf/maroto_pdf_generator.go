// Package pdf genera el certificado de un CarbonDocument acuñado.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Climatecoin + título  │  Serial + fecha de emisión │
//	│  ─────────────────────────────────────────────────────────  │
//	│  PROYECTO: registro / tipo / país / vintage / créditos       │
//	│  ODS                                                         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Tipo | ASA | Dueño | Txn                             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR al explorer + leyenda                            │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/climatecoin/carbon-api/internal/application/carbon"
	"github.com/climatecoin/carbon-api/internal/domain/entity"
)

var _ carbon.CertificateGenerator = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 22, Green: 101, Blue: 52}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa carbon.CertificateGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	now func() time.Time
}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{now: time.Now} }

// GenerateCertificate genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateCertificate(
	_ context.Context,
	doc *entity.CarbonDocument,
	nfts []*entity.Nft,
	explorerURL string,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Certificado de créditos de carbono", true).
		WithAuthor("Climatecoin", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(doc, g.now()))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(projectRow(doc))
	m.AddRows(sdgsRow(doc.Sdgs))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range nftRows(nfts) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	for _, r := range footerRows(developerAssetURL(explorerURL, nfts)) {
		m.AddRows(r)
	}

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar certificado: %w", err)
	}
	return out.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(doc *entity.CarbonDocument, issued time.Time) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New("CLIMATECOIN", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(doc.Title, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("CERTIFICADO DE CRÉDITOS DE CARBONO", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(doc.SerialNumber, doc.ID), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 7,
			}),
			text.New("Emitido: "+issued.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func projectRow(doc *entity.CarbonDocument) core.Row {
	vintage := "—"
	if doc.VintageYear > 0 {
		vintage = strconv.Itoa(doc.VintageYear)
	}
	return row.New(20).Add(
		col.New(8).Add(
			text.New("PROYECTO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Registro: %s   |   Tipo: %s",
				nonEmpty(doc.RegistryName, "—"),
				nonEmpty(doc.ProjectType, "—"),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
			text.New(fmt.Sprintf("País: %s   |   Vintage: %s",
				nonEmpty(doc.Country, "—"), vintage,
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
		col.New(4).Add(
			text.New("CRÉDITOS", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(formatCredits(doc.Credits.StringFixed(0))+" tCO2e", props.Text{
				Style: fontstyle.Bold, Size: 14, Align: align.Right, Top: 7,
			}),
		),
	)
}

func sdgsRow(sdgs []string) core.Row {
	label := "—"
	if len(sdgs) > 0 {
		label = strings.Join(sdgs, ", ")
	}
	return row.New(8).Add(col.New(12).Add(
		text.New("Objetivos de Desarrollo Sostenible: "+label, props.Text{Size: 8, Top: 2, Color: colorGray}),
	))
}

// tableHeaderRow: cabecera de la tabla de NFTs.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).WithStyle(&props.Cell{BackgroundColor: colorPrimary}).Add(
		h("NFT", 2, align.Left),
		h("ASA", 2, align.Right),
		h("Dueño", 4, align.Left),
		h("Txn", 4, align.Left),
	)
}

// nftRows: una fila por NFT; direcciones y txids abreviados.
func nftRows(nfts []*entity.Nft) []core.Row {
	result := make([]core.Row, 0, len(nfts))
	for _, n := range nfts {
		result = append(result, row.New(7).Add(
			col.New(2).Add(text.New(nftLabel(n.TxnType), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(strconv.FormatUint(n.AsaID, 10), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(4).Add(text.New(abbreviate(n.OwnerAddress, 12), props.Text{Size: 7, Top: 1, Left: 1})),
			col.New(4).Add(text.New(abbreviate(n.AsaTxnID, 12), props.Text{Size: 7, Top: 1, Left: 1})),
		))
	}
	return result
}

// footerRows: QR hacia el explorer + leyenda.
func footerRows(url string) []core.Row {
	legend := "Los créditos representados en este certificado están tokenizados como ASA en Algorand."
	if url == "" {
		return []core.Row{row.New(10).Add(col.New(12).Add(
			text.New(legend, props.Text{Size: 7, Color: colorGray, Top: 2}),
		))}
	}
	rows := []core.Row{row.New(50).Add(
		col.New(4).Add(code.NewQr(url, props.Rect{
			Percent: 95,
			Center:  true,
		})),
		col.New(8).Add(
			text.New("Escanea el código QR para ver\nel NFT en el explorador.", props.Text{
				Size: 8, Top: 4, Left: 3, Color: colorGray,
			}),
			text.New(legend, props.Text{
				Size: 7, Top: 22, Left: 3, Color: colorGray,
			}),
		),
	)}
	for _, chunk := range splitEvery(url, 90) {
		rows = append(rows, row.New(4).Add(col.New(12).Add(
			text.New(chunk, props.Text{Size: 6.5, Color: colorGray, Top: 0.5}),
		)))
	}
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func developerAssetURL(explorerURL string, nfts []*entity.Nft) string {
	if explorerURL == "" {
		return ""
	}
	for _, n := range nfts {
		if n.TxnType == entity.NftTxnAssetCreation {
			return strings.TrimRight(explorerURL, "/") + "/asset/" + strconv.FormatUint(n.AsaID, 10)
		}
	}
	return ""
}

func nftLabel(txnType string) string {
	switch txnType {
	case entity.NftTxnAssetCreation:
		return "Desarrollador"
	case entity.NftTxnFeeAssetCreation:
		return "Fee"
	default:
		return txnType
	}
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// abbreviate deja n caracteres a cada lado: "ABCD...WXYZ".
func abbreviate(s string, n int) string {
	if len(s) <= 2*n+3 {
		return s
	}
	return s[:n] + "..." + s[len(s)-n:]
}

// formatCredits inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000"
func formatCredits(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}

// splitEvery divide s en trozos de max n caracteres.
func splitEvery(s string, n int) []string {
	var parts []string
	for len(s) > n {
		parts = append(parts, s[:n])
		s = s[n:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}
