package report

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dpaiva/carteira/internal/common"
	"github.com/dpaiva/carteira/internal/models"
)

// fallbackNarrative is the canned analysis block used when the generation
// service is unavailable. It renders inside the same card as a real answer.
const fallbackNarrative = "<i>Análise de IA indisponível no momento. Os números da carteira acima continuam válidos.</i>"

// summaryCSV renders the compact per-fund table fed to the prompt. Kept
// deliberately narrow so the prompt stays small.
func summaryCSV(snapshot *models.PortfolioSnapshot) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	w.Write([]string{"Ativo", "Preço Atual", "P/VP", "DY (12m)", "Valor Atual"})
	for _, p := range snapshot.FundPositions() {
		w.Write([]string{
			p.Ticker,
			strconv.FormatFloat(p.CurrentPrice, 'f', 2, 64),
			strconv.FormatFloat(p.Metrics.ValuationRatio, 'f', 4, 64),
			strconv.FormatFloat(p.TrailingYield, 'f', 4, 64),
			strconv.FormatFloat(p.Metrics.MarketValue, 'f', 2, 64),
		})
	}
	w.Flush()

	return sb.String()
}

// buildPrompt assembles the pt-BR family-office prompt around the summary
// and the classifier shortlists.
func buildPrompt(snapshot *models.PortfolioSnapshot, radar *models.RadarReport) string {
	var sb strings.Builder

	sb.WriteString("Atue como um consultor financeiro pessoal (Family Office).\n")
	sb.WriteString("Escreva um resumo matinal curto e direto para o investidor sobre esta carteira de FIIs:\n\n")
	sb.WriteString("DADOS DA CARTEIRA:\n")
	sb.WriteString(summaryCSV(snapshot))
	sb.WriteString(fmt.Sprintf("Patrimônio Total: %s\n", common.FormatBRL(snapshot.TotalMarketValue)))
	sb.WriteString(fmt.Sprintf("Total Investido: %s\n\n", common.FormatBRL(snapshot.TotalInvested)))

	if radar != nil {
		if len(radar.Opportunities) > 0 {
			sb.WriteString("OPORTUNIDADES (sub-alocadas e descontadas):\n")
			for _, o := range radar.Opportunities {
				sb.WriteString(fmt.Sprintf("- %s (P/VP %.2f, DY %s, aporte sugerido %s)\n",
					o.Ticker, o.ValuationRatio, common.FormatPct(o.TrailingYield), common.FormatBRL(o.SuggestedTopUp)))
			}
			sb.WriteString("\n")
		}
		if len(radar.Alerts) > 0 {
			sb.WriteString("ALERTAS:\n")
			for _, a := range radar.Alerts {
				sb.WriteString(fmt.Sprintf("- %s (P/VP %.2f, motivos: %s)\n",
					a.Ticker, a.ValuationRatio, strings.Join(a.Reasons, ", ")))
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("Gere um texto curto em HTML (use tags <b>, <br>, <ul>, <li>) com a seguinte estrutura:\n")
	sb.WriteString("1. <b>Diagnóstico Rápido:</b> Como está a saúde geral (P/VP médio, risco)?\n")
	sb.WriteString("2. <b>Destaque do Dia:</b> Qual o melhor ativo para aportar hoje (barato e bom)?\n")
	sb.WriteString("3. <b>Alerta:</b> Algum ativo preocupante?\n")
	sb.WriteString("4. <b>Veredito:</b> Uma frase motivacional ou de cautela sobre o mercado hoje.\n\n")
	sb.WriteString("Não use tabelas, apenas texto corrido e listas. Seja breve.")

	return sb.String()
}

// cleanNarrative strips markdown code fences that models sometimes wrap
// around HTML output.
func cleanNarrative(raw string) string {
	s := strings.ReplaceAll(raw, "```html", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// renderHTML wraps the narrative and snapshot totals into the email-ready
// morning-call document.
func renderHTML(narrative string, snapshot *models.PortfolioSnapshot, generatedAt time.Time) string {
	gainColor := "green"
	if snapshot.TotalGain < 0 {
		gainColor = "red"
	}

	return fmt.Sprintf(`<html>
<body style="font-family: Helvetica, Arial, sans-serif; color: #333; line-height: 1.6;">
  <div style="max-width: 600px; margin: 0 auto; border: 1px solid #e0e0e0; border-radius: 8px; overflow: hidden;">
    <div style="background-color: #0f766e; padding: 20px; text-align: center;">
      <h2 style="color: #ffffff; margin: 0;">Carteira: Morning Call</h2>
      <p style="color: #ccfbf1; margin: 5px 0 0 0;">%s</p>
    </div>
    <div style="padding: 20px;">
      <table style="width: 100%%; border-collapse: collapse; margin-bottom: 20px;">
        <tr style="background-color: #f8fafc;">
          <td style="padding: 12px; border-bottom: 1px solid #eee;">Patrimônio</td>
          <td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right; font-weight: bold;">%s</td>
        </tr>
        <tr>
          <td style="padding: 12px; border-bottom: 1px solid #eee;">Resultado Acumulado</td>
          <td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right; font-weight: bold; color: %s;">%s</td>
        </tr>
      </table>
      <div style="background-color: #f0fdfa; border-left: 4px solid #0f766e; padding: 15px; border-radius: 4px;">
        <h3 style="margin-top: 0; color: #0f766e;">Análise do Dia</h3>
        %s
      </div>
    </div>
    <div style="background-color: #f8fafc; padding: 15px; text-align: center; font-size: 12px; color: #888;">
      <p>Relatório automático gerado pela sua carteira.</p>
    </div>
  </div>
</body>
</html>`,
		generatedAt.Format("02/01/2006"),
		common.FormatBRL(snapshot.TotalMarketValue),
		gainColor,
		common.FormatBRL(snapshot.TotalGain),
		narrative,
	)
}
