package simulator

import (
	"math"
	"satistrain_backend/internal/model"
	"strings"
	"unicode/utf8"
)

const (
	baseEmpathy         = 60
	baseClarity         = 65
	baseHelpfulness     = 70
	baseProfessionalism = 65

	empathyPerHit         = 8.0
	clarityPerHit         = 5.0
	helpfulnessPerHit     = 6.0
	professionalismPerHit = 6.0
	scenarioTermBonus     = 4.0

	negativePenalty                = 10.0
	negativeProfessionalismPenalty = 15.0

	lengthBonusDivisor = 20
	maxLengthBonus     = 10
	questionBonus      = 5.0

	// MaxMessageLength 单条消息的最大字符数
	MaxMessageLength = 500
)

// countTerms 统计 terms 在 text 中出现的总次数
func countTerms(text string, terms []string) int {
	n := 0
	for _, t := range terms {
		n += strings.Count(text, t)
	}
	return n
}

func clamp(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(math.Round(v))
}

// CalculateMessageScore 对坐席的一条回复打分，结果只取决于输入
func CalculateMessageScore(text, scenarioID, personality string) model.MessageScore {
	lower := strings.ToLower(text)
	p := personalityProfile(personality)

	empathyHits := countTerms(lower, empathyTerms)
	clarityHits := countTerms(lower, clarityTerms)
	helpHits := countTerms(lower, helpfulnessTerms)
	profHits := countTerms(lower, professionalismTerms)
	negHits := countTerms(lower, negativeTerms)

	scenarioHits := 0
	if sc, ok := FindScenario(scenarioID); ok {
		scenarioHits = countTerms(lower, sc.Keywords)
	}

	length := utf8.RuneCountInString(text)
	lengthBonus := length / lengthBonusDivisor
	if lengthBonus > maxLengthBonus {
		lengthBonus = maxLengthBonus
	}

	negative := float64(negHits) * negativePenalty

	empathy := baseEmpathy + float64(empathyHits)*empathyPerHit*p.empathyWeight - negative
	clarity := baseClarity + float64(clarityHits)*(clarityPerHit+p.clarityExtra) + float64(lengthBonus) - negative
	if p.maxPatientLength > 0 && length > p.maxPatientLength {
		clarity -= 5
	}
	helpfulness := baseHelpfulness + float64(helpHits)*helpfulnessPerHit + float64(scenarioHits)*scenarioTermBonus - negative
	if strings.Contains(text, "?") {
		helpfulness += questionBonus
	}
	professionalism := baseProfessionalism + float64(profHits)*professionalismPerHit - float64(negHits)*negativeProfessionalismPenalty

	score := model.MessageScore{
		Empathy:         clamp(empathy),
		Clarity:         clamp(clarity),
		Helpfulness:     clamp(helpfulness),
		Professionalism: clamp(professionalism),
	}
	score.Overall = clamp(0.3*float64(score.Empathy) +
		0.2*float64(score.Clarity) +
		0.3*float64(score.Helpfulness) +
		0.2*float64(score.Professionalism))

	return score
}

// Feedback 针对低于阈值的维度给出改进提示
func Feedback(score model.MessageScore) []string {
	const threshold = 70
	var hints []string
	if score.Empathy < threshold {
		hints = append(hints, "Zeigen Sie mehr Verständnis für die Situation des Kunden.")
	}
	if score.Clarity < threshold {
		hints = append(hints, "Strukturieren Sie Ihre Antwort in klare Schritte.")
	}
	if score.Helpfulness < threshold {
		hints = append(hints, "Bieten Sie eine konkrete Lösung oder einen nächsten Schritt an.")
	}
	if score.Professionalism < threshold {
		hints = append(hints, "Achten Sie auf einen höflichen, professionellen Ton.")
	}
	return hints
}
