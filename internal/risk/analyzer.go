package risk

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xela07ax/workforce-console/internal/domain"
	"go.uber.org/zap"
)

// Порог, начиная с которого роль считается высокорисковой
const HighRiskThreshold = 70

// Действия, которые необратимо меняют данные или выводят их наружу
var destructiveActions = map[string]bool{
	"delete":  true,
	"approve": true,
	"export":  true,
	"manage":  true,
	"run":     true,
}

// Поля с персональными и финансовыми данными
var sensitiveFields = map[string]bool{
	"salary":        true,
	"compensation":  true,
	"bank_account":  true,
	"ssn":           true,
	"tax_id":        true,
	"date_of_birth": true,
}

// Analyzer оценивает риск роли по ее правам. Используется, когда у роли нет
// сохраненной оценки от внешнего сервиса.
type Analyzer struct {
	logger *zap.Logger
}

func NewAnalyzer(logger *zap.Logger) *Analyzer {
	return &Analyzer{logger: logger.Named("risk")}
}

// Insight возвращает сохраненную оценку роли, а при ее отсутствии считает новую.
func (a *Analyzer) Insight(role domain.Role) domain.AIInsight {
	if role.AIInsight != nil {
		return *role.AIInsight
	}
	return a.Assess(role)
}

// Assess считает оценку 0..100 по сигналам: wildcard-права, деструктивные действия,
// запись в чувствительные поля, глобальный scope и число назначенных пользователей.
func (a *Analyzer) Assess(role domain.Role) domain.AIInsight {
	var (
		score    int
		findings []string
	)

	for _, module := range sortedKeys(role.Permissions) {
		for _, action := range role.Permissions[module] {
			action = strings.ToLower(action)
			switch {
			case action == "*":
				score += 30
				findings = append(findings, fmt.Sprintf("wildcard access to %s", module))
			case destructiveActions[action]:
				score += 10
				findings = append(findings, fmt.Sprintf("%s:%s", module, action))
			}
		}
	}

	for _, entity := range sortedKeys(role.FieldPermissions) {
		fields := role.FieldPermissions[entity]
		for _, field := range sortedKeys(fields) {
			if sensitiveFields[field] && fields[field] == domain.AccessWrite {
				score += 15
				findings = append(findings, fmt.Sprintf("write access to %s.%s", entity, field))
			}
		}
	}

	if role.Scope == domain.ScopeGlobal {
		score += 10
		findings = append(findings, "global scope")
	}
	score += min(role.UserCount, 10)

	score = min(score, 100)
	insight := domain.AIInsight{
		RiskScore:  score,
		Confidence: min(0.6+0.05*float64(len(findings)), 0.95),
		Summary:    summary(score, len(findings)),
		Findings:   findings,
	}

	if score >= HighRiskThreshold {
		a.logger.Debug("high risk role detected",
			zap.String("role_id", role.ID),
			zap.Int("score", score),
			zap.Strings("findings", findings))
	}
	return insight
}

// Overview - сводная оценка по всем ролям тенанта для карточки статистики.
func (a *Analyzer) Overview(roles []domain.Role) (*domain.AIInsight, int) {
	if len(roles) == 0 {
		return nil, 0
	}

	var (
		highRisk int
		worst    domain.AIInsight
		worstID  string
	)
	for _, r := range roles {
		in := a.Insight(r)
		if in.RiskScore >= HighRiskThreshold {
			highRisk++
		}
		if worstID == "" || in.RiskScore > worst.RiskScore {
			worst, worstID = in, r.Name
		}
	}

	return &domain.AIInsight{
		RiskScore:  worst.RiskScore,
		Confidence: worst.Confidence,
		Summary:    fmt.Sprintf("%d of %d roles are high risk; riskiest is %s", highRisk, len(roles), worstID),
		Findings:   worst.Findings,
	}, highRisk
}

func summary(score, signals int) string {
	switch {
	case score >= HighRiskThreshold:
		return fmt.Sprintf("High risk: %d privileged grants, review before assigning", signals)
	case score >= 40:
		return fmt.Sprintf("Moderate risk: %d privileged grants", signals)
	case signals == 0:
		return "Low risk: read-only access"
	}
	return "Low risk"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
