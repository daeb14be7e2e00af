package simulator

import (
	"math/rand"
	"satistrain_backend/internal/model"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func inRange(t *testing.T, s model.MessageScore) {
	t.Helper()
	for name, v := range map[string]int{
		"empathy":         s.Empathy,
		"clarity":         s.Clarity,
		"helpfulness":     s.Helpfulness,
		"professionalism": s.Professionalism,
		"overall":         s.Overall,
	} {
		assert.GreaterOrEqual(t, v, 0, name)
		assert.LessOrEqual(t, v, 100, name)
	}
}

func TestCalculateMessageScore_ExampleMessage(t *testing.T) {
	msg := "Ich verstehe, dass das frustrierend ist. Lassen Sie uns gemeinsam eine Lösung finden."

	score := CalculateMessageScore(msg, "billing_complaint", PersonalityFriendly)

	assert.Greater(t, score.Empathy, baseEmpathy)
	assert.Greater(t, score.Helpfulness, baseHelpfulness)
}

func TestCalculateMessageScore_ClampedForAllLengths(t *testing.T) {
	vocab := append([]string{}, empathyTerms...)
	vocab = append(vocab, clarityTerms...)
	vocab = append(vocab, helpfulnessTerms...)
	vocab = append(vocab, professionalismTerms...)
	vocab = append(vocab, negativeTerms...)
	vocab = append(vocab, "?", "hallo", "x", " ")

	r := rand.New(rand.NewSource(7))
	for length := 0; length <= MaxMessageLength; length += 5 {
		var b strings.Builder
		for b.Len() < length {
			b.WriteString(vocab[r.Intn(len(vocab))])
			b.WriteByte(' ')
		}
		text := []rune(b.String())
		if len(text) > length {
			text = text[:length]
		}
		inRange(t, CalculateMessageScore(string(text), "technical_issue", PersonalityAngry))
	}
}

func TestCalculateMessageScore_ExtremesClamp(t *testing.T) {
	positive := strings.Repeat("verstehe lösung bitte zunächst ", 16)
	negative := strings.Repeat("ihr fehler ", 40)

	high := CalculateMessageScore(positive, "billing_complaint", PersonalityAngry)
	low := CalculateMessageScore(negative, "billing_complaint", PersonalityAngry)

	assert.Equal(t, 100, high.Empathy)
	assert.Equal(t, 100, high.Helpfulness)
	assert.Equal(t, 0, low.Empathy)
	assert.Equal(t, 0, low.Professionalism)
	inRange(t, high)
	inRange(t, low)
}

func TestCalculateMessageScore_Deterministic(t *testing.T) {
	msg := "Guten Tag! Zunächst prüfe ich Ihre Rechnung, danach erstatte ich den Betrag. Passt das?"
	first := CalculateMessageScore(msg, "billing_complaint", PersonalityAngry)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, CalculateMessageScore(msg, "billing_complaint", PersonalityAngry))
	}
}

func TestCalculateMessageScore_Modifiers(t *testing.T) {
	t.Run("question bonus", func(t *testing.T) {
		plain := CalculateMessageScore("Wie lautet Ihre Kundennummer", "", "")
		question := CalculateMessageScore("Wie lautet Ihre Kundennummer?", "", "")
		assert.Equal(t, plain.Helpfulness+int(questionBonus), question.Helpfulness)
	})

	t.Run("angry customers weigh empathy higher", func(t *testing.T) {
		msg := "Das tut mir leid."
		angry := CalculateMessageScore(msg, "", PersonalityAngry)
		friendly := CalculateMessageScore(msg, "", PersonalityFriendly)
		assert.Greater(t, angry.Empathy, friendly.Empathy)
	})

	t.Run("scenario keywords count as helpful", func(t *testing.T) {
		msg := "Ich sehe mir Ihre Sendung an."
		inScenario := CalculateMessageScore(msg, "delivery_delay", "")
		other := CalculateMessageScore(msg, "technical_issue", "")
		assert.Greater(t, inScenario.Helpfulness, other.Helpfulness)
	})

	t.Run("negative phrases penalise", func(t *testing.T) {
		neutral := CalculateMessageScore("Ich schaue nach.", "", "")
		rude := CalculateMessageScore("Keine Ahnung, ich schaue nach.", "", "")
		assert.Less(t, rude.Empathy, neutral.Empathy)
		assert.Less(t, rude.Professionalism, neutral.Professionalism)
	})

	t.Run("length bonus capped", func(t *testing.T) {
		long := CalculateMessageScore(strings.Repeat("a", 400), "", "")
		longer := CalculateMessageScore(strings.Repeat("a", 500), "", "")
		assert.Equal(t, baseClarity+maxLengthBonus, long.Clarity)
		assert.Equal(t, long.Clarity, longer.Clarity)
	})
}

func TestFeedback(t *testing.T) {
	assert.Empty(t, Feedback(model.MessageScore{Empathy: 80, Clarity: 80, Helpfulness: 80, Professionalism: 80}))
	assert.Len(t, Feedback(model.MessageScore{Empathy: 10, Clarity: 10, Helpfulness: 10, Professionalism: 10}), 4)
	assert.Len(t, Feedback(model.MessageScore{Empathy: 69, Clarity: 70, Helpfulness: 90, Professionalism: 90}), 1)
}

func TestCustomerReply(t *testing.T) {
	good := model.MessageScore{Overall: 90}
	mid := model.MessageScore{Overall: 70}
	bad := model.MessageScore{Overall: 20}

	assert.Contains(t, satisfiedReplies, CustomerReply("billing_complaint", PersonalityFriendly, good, 0))
	assert.Contains(t, neutralReplies, CustomerReply("billing_complaint", PersonalityFriendly, mid, 1))
	assert.True(t, strings.HasPrefix(CustomerReply("billing_complaint", PersonalityAngry, bad, 2), "Jetzt reicht es mir aber!"))
	assert.Equal(t,
		CustomerReply("delivery_delay", PersonalityImpatient, mid, 4),
		CustomerReply("delivery_delay", PersonalityImpatient, mid, 4))
}

func TestScenarios(t *testing.T) {
	list := Scenarios()
	assert.Len(t, list, 4)
	for _, s := range list {
		assert.True(t, ValidPersonality(s.DefaultPersonality), s.ID)
		assert.NotEmpty(t, s.Opening)
		found, ok := FindScenario(s.ID)
		assert.True(t, ok)
		assert.Equal(t, s.ID, found.ID)
	}
	_, ok := FindScenario("unknown")
	assert.False(t, ok)
}
