package simulator

import "satistrain_backend/internal/model"

var (
	satisfiedReplies = []string{
		"Okay, das klingt vernünftig. Danke, dass Sie sich darum kümmern.",
		"Gut, damit kann ich leben. Wie geht es jetzt weiter?",
		"Vielen Dank, das hilft mir wirklich weiter.",
	}
	neutralReplies = []string{
		"Hm, und was heißt das jetzt konkret für mich?",
		"Das beantwortet meine Frage nur halb.",
		"Können Sie mir das bitte genauer erklären?",
	}
	upsetReplies = []string{
		"Das ist doch keine Antwort! Ich will eine Lösung.",
		"Ich fühle mich hier überhaupt nicht ernst genommen.",
		"So komme ich nicht weiter. Geben Sie mir bitte einen Vorgesetzten.",
	}
)

var personalityTags = map[string]map[string]string{
	PersonalityAngry:     {"upset": "Jetzt reicht es mir aber! "},
	PersonalityImpatient: {"neutral": "Bitte schneller. ", "upset": "Ich habe keine Zeit für so etwas. "},
	PersonalityConfused:  {"neutral": "Das verstehe ich nicht ganz. "},
}

// CustomerReply 根据评分档位选择模拟客户的下一句话
func CustomerReply(scenarioID, personality string, score model.MessageScore, turn int) string {
	band, lines := "upset", upsetReplies
	switch {
	case score.Overall >= 80:
		band, lines = "satisfied", satisfiedReplies
	case score.Overall >= 65:
		band, lines = "neutral", neutralReplies
	}

	if turn < 0 {
		turn = -turn
	}
	reply := lines[turn%len(lines)]

	if tags, ok := personalityTags[personality]; ok {
		reply = tags[band] + reply
	}
	if band == "satisfied" && scenarioID == "contract_cancellation" && turn > 0 {
		reply = "Wenn Sie mir so entgegenkommen, überlege ich es mir noch einmal. " + reply
	}
	return reply
}
