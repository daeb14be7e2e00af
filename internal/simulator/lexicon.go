package simulator

// 词表均为小写，按子串计数
var (
	empathyTerms = []string{
		"verstehe", "verständnis", "nachvollziehen", "frustrierend", "ärgerlich",
		"tut mir leid", "entschuldigung", "entschuldigen", "bedauere", "gemeinsam",
		"ihre sorge", "kann mir vorstellen",
	}

	clarityTerms = []string{
		"zunächst", "erstens", "zweitens", "anschließend", "schritt", "konkret",
		"das bedeutet", "zusammengefasst", "genauer gesagt", "im detail",
	}

	helpfulnessTerms = []string{
		"lösung", "helfen", "unterstütze", "kümmere", "prüfe", "erstatte",
		"gutschrift", "ersatz", "sofort", "angebot", "möglichkeit", "weiterleiten",
	}

	professionalismTerms = []string{
		"bitte", "danke", "gerne", "selbstverständlich", "freundlichen grüßen",
		"guten tag", "herzlich", "vielen dank",
	}

	negativeTerms = []string{
		"nicht mein problem", "keine ahnung", "kann ich nicht", "unmöglich",
		"ihr fehler", "selbst schuld", "ist mir egal", "beruhigen sie sich", "dumm",
	}
)
