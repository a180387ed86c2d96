// Package access реализует оценку доступа к фичам по тарифу.
// Чистая политика над уже разрешёнными данными: ни побочных эффектов,
// ни ошибок. Каждый отказ несёт маршрут апгрейда, молчаливых отказов нет.
package access

import (
	"github.com/arteemmka/reelkit/internal/models"
)

// UpgradeRoute — маршрут страницы тарифов, показывается при любом отказе.
const UpgradeRoute = "/pricing"

// Decision — результат проверки доступа к фиче.
type Decision struct {
	Allowed      bool        `json:"allowed"`
	Feature      string      `json:"feature"`
	CurrentTier  models.Tier `json:"current_tier"`
	RequiredTier models.Tier `json:"required_tier"`
	UpgradeURL   string      `json:"upgrade_url,omitempty"`
}

// Evaluator выносит решения о доступе.
type Evaluator struct{}

// NewEvaluator создает новый Evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// HasAccess сообщает, достаточно ли текущего тарифа для требуемого.
func (e *Evaluator) HasAccess(current, required models.Tier) bool {
	return models.IsAtLeast(current, required)
}

// Check возвращает решение по фиче: при отказе заполняется UpgradeURL.
func (e *Evaluator) Check(current, required models.Tier, feature string) Decision {
	d := Decision{
		Allowed:      e.HasAccess(current, required),
		Feature:      feature,
		CurrentTier:  current,
		RequiredTier: required,
	}
	if !d.Allowed {
		d.UpgradeURL = UpgradeRoute
	}
	return d
}
