package domain

import "time"

// InsightKind classifies a generated insight.
type InsightKind string

const (
	KindAlert       InsightKind = "alerta"
	KindOpportunity InsightKind = "oportunidade"
	KindInfo        InsightKind = "informacao"
)

// InsightSource names the subsystem that produced an insight.
type InsightSource string

const (
	SourceLinearTrend   InsightSource = "regressao_linear"
	SourceRuleEvaluator InsightSource = "arvore_decisao"
	SourceHeuristic     InsightSource = "heuristica"
)

// Insight priorities. Lower is more urgent.
const (
	PriorityUrgent        = 1
	PriorityImportant     = 2
	PriorityInformational = 3
)

// Insight is one generated finding about an owner's spending behavior.
// A run of the engine replaces the owner's unread insights with a fresh
// ranked batch; read insights are kept as history.
type Insight struct {
	ID          string
	Owner       string
	Title       string
	Message     string
	Kind        InsightKind
	Source      InsightSource
	Priority    int
	GeneratedAt time.Time
	Read        bool
}
