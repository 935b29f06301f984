package insights

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/equilibra/equilibra/internal/domain"
)

// Rule thresholds. Ratios relate outflow to inflow or to the total outflow
// of the window; the growth floor is an absolute weekly amount.
var (
	ratioCritical      = decimal.NewFromFloat(0.9)
	ratioHigh          = decimal.NewFromFloat(0.75)
	ratioHealthy       = decimal.NewFromFloat(0.5)
	concentrationLimit = decimal.NewFromFloat(0.40)
	foodShare          = decimal.NewFromFloat(0.30)
	transportShare     = decimal.NewFromFloat(0.25)
	thinMarginShare    = decimal.NewFromFloat(0.1)
	growthFactor       = decimal.NewFromFloat(1.5)
	growthFloor        = decimal.NewFromInt(50)
	weekendShare       = decimal.NewFromFloat(0.35)
	reserveShare       = decimal.NewFromFloat(0.2)
)

// evaluateRules runs the fixed ordered rule set over the aggregates, the
// projected end-of-month balance and the current balance. Rules are
// independent: several may fire in one run, and a rule whose inputs cannot
// be evaluated (zero denominator) emits nothing. Only the three spend-ratio
// rules are mutually exclusive by construction.
func evaluateRules(agg Aggregates, projected, balance decimal.Decimal) []domain.Insight {
	var out []domain.Insight

	add := func(title, message string, kind domain.InsightKind, priority int) {
		out = append(out, domain.Insight{
			Title:    title,
			Message:  message,
			Kind:     kind,
			Source:   domain.SourceRuleEvaluator,
			Priority: priority,
		})
	}

	// Spend ratio: outflow relative to inflow over the window.
	if agg.TotalInflow.IsPositive() {
		ratio := agg.TotalOutflow.Div(agg.TotalInflow)
		pct, _ := ratio.Float64()
		switch {
		case ratio.GreaterThan(ratioCritical):
			add("⚠️ Gastos Críticos",
				fmt.Sprintf("Suas despesas estão em %s das suas receitas este mês. Risco alto de déficit!", domain.FormatPercent(pct)),
				domain.KindAlert, domain.PriorityUrgent)
		case ratio.GreaterThan(ratioHigh):
			add("⚡ Atenção aos Gastos",
				fmt.Sprintf("Você já gastou %s das suas receitas. Considere reduzir despesas não essenciais.", domain.FormatPercent(pct)),
				domain.KindAlert, domain.PriorityImportant)
		case ratio.LessThan(ratioHealthy):
			add("💰 Gestão Eficiente",
				fmt.Sprintf("Parabéns! Você gastou apenas %s das suas receitas. Continue assim!", domain.FormatPercent(pct)),
				domain.KindOpportunity, domain.PriorityInformational)
		}
	}

	// Category concentration: the dominant category against total outflow.
	if cat, share, ok := dominantCategory(agg); ok && share.GreaterThan(concentrationLimit) {
		pct, _ := share.Float64()
		add(fmt.Sprintf("📊 Concentração em %s", cat),
			fmt.Sprintf("A categoria %q representa %s dos seus gastos. Considere diversificar suas despesas.", cat, domain.FormatPercent(pct)),
			domain.KindInfo, domain.PriorityImportant)
	}

	// Category-specific overruns against income.
	if spentInCategory(agg, "alimentação").GreaterThan(agg.TotalInflow.Mul(foodShare)) {
		add("🍔 Gastos Elevados em Alimentação",
			"Seus gastos com alimentação estão acima de 30% da renda. Considere cozinhar mais em casa.",
			domain.KindAlert, domain.PriorityImportant)
	}
	if spentInCategory(agg, "transporte").GreaterThan(agg.TotalInflow.Mul(transportShare)) {
		add("🚗 Transporte Custando Muito",
			"Gastos com transporte ultrapassaram 25% da renda. Avalie alternativas mais econômicas.",
			domain.KindAlert, domain.PriorityImportant)
	}

	// End-of-month balance projection.
	if projected.IsNegative() {
		add("🚨 Risco de Saldo Negativo",
			fmt.Sprintf("Com o ritmo atual de gastos, você pode fechar o mês com déficit de %s.", domain.FormatBRL(projected.Abs())),
			domain.KindAlert, domain.PriorityUrgent)
	} else if projected.LessThan(balance.Mul(thinMarginShare)) {
		add("⚠️ Margem Apertada",
			fmt.Sprintf("Projeção indica que você terá apenas %s no final do mês. Cuidado!", domain.FormatBRL(projected)),
			domain.KindAlert, domain.PriorityImportant)
	}

	// Transaction frequency over the last week.
	perDay := float64(agg.Count7d) / 7
	if perDay > 5 {
		add("📈 Muitas Transações",
			fmt.Sprintf("Você está fazendo %.1f transações por dia. Muitas pequenas despesas podem somar!", perDay),
			domain.KindInfo, domain.PriorityInformational)
	}

	// Short- versus long-window category growth.
	if cat, increase, ok := steepestGrowth(agg); ok {
		add(fmt.Sprintf("📊 Aumento em %s", cat),
			fmt.Sprintf("Seus gastos em %q aumentaram %s na última semana. Fique atento!", cat, domain.FormatPercent(increase)),
			domain.KindAlert, domain.PriorityImportant)
	}

	// Weekend concentration.
	if agg.TotalOutflow.IsPositive() {
		share := agg.WeekendOutflow.Div(agg.TotalOutflow)
		if share.GreaterThan(weekendShare) {
			pct, _ := share.Float64()
			add("🎉 Gastos de Fim de Semana",
				fmt.Sprintf("%s dos seus gastos ocorrem nos finais de semana. Planeje-se melhor para esses dias!", domain.FormatPercent(pct)),
				domain.KindInfo, domain.PriorityInformational)
		}
	}

	// Reserve target. The target derives from the balance itself, so the
	// condition never holds for a positive balance; kept as shipped.
	target := balance.Mul(reserveShare)
	if balance.LessThan(target) && balance.IsPositive() {
		add("💡 Construa sua Reserva",
			fmt.Sprintf("Tente manter pelo menos 20%% do seu saldo como reserva de emergência. Meta: %s", domain.FormatBRL(target)),
			domain.KindOpportunity, domain.PriorityInformational)
	}

	return out
}

// dominantCategory returns the category with the highest share of total
// outflow. Ties break towards the lexicographically smallest name so the
// evaluation stays deterministic.
func dominantCategory(agg Aggregates) (string, decimal.Decimal, bool) {
	if !agg.TotalOutflow.IsPositive() || len(agg.OutflowByCategory) == 0 {
		return "", decimal.Zero, false
	}

	var best string
	var bestAmount decimal.Decimal
	for _, cat := range sortedCategories(agg.OutflowByCategory) {
		amount := agg.OutflowByCategory[cat]
		if best == "" || amount.GreaterThan(bestAmount) {
			best, bestAmount = cat, amount
		}
	}
	return best, bestAmount.Div(agg.TotalOutflow), true
}

// steepestGrowth finds the category whose 7-day daily average most exceeds
// 1.5× its 30-day daily average, subject to the weekly floor.
func steepestGrowth(agg Aggregates) (string, float64, bool) {
	var best string
	var bestIncrease float64

	for _, cat := range sortedCategories(agg.OutflowByCategory7d) {
		total7 := agg.OutflowByCategory7d[cat]
		if !total7.GreaterThan(growthFloor) {
			continue
		}
		avg30 := agg.OutflowByCategory30d[cat].Div(decimal.NewFromInt(30))
		if !avg30.IsPositive() {
			continue
		}
		avg7 := total7.Div(decimal.NewFromInt(7))
		if !avg7.GreaterThan(avg30.Mul(growthFactor)) {
			continue
		}
		increase, _ := avg7.Div(avg30).Sub(decimal.NewFromInt(1)).Float64()
		if best == "" || increase > bestIncrease {
			best, bestIncrease = cat, increase
		}
	}

	return best, bestIncrease, best != ""
}

func spentInCategory(agg Aggregates, needle string) decimal.Decimal {
	total := decimal.Zero
	for cat, amount := range agg.OutflowByCategory {
		if strings.Contains(strings.ToLower(cat), needle) {
			total = total.Add(amount)
		}
	}
	return total
}

func sortedCategories(m map[string]decimal.Decimal) []string {
	cats := make([]string, 0, len(m))
	for cat := range m {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	return cats
}
