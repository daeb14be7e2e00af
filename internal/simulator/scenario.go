package simulator

// Scenario 一个模拟客户的对话场景
type Scenario struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	DefaultPersonality string   `json:"defaultPersonality"`
	Opening            string   `json:"opening"`
	Keywords           []string `json:"-"`
}

const (
	PersonalityAngry     = "angry"
	PersonalityConfused  = "confused"
	PersonalityImpatient = "impatient"
	PersonalityFriendly  = "friendly"
)

var scenarios = []Scenario{
	{
		ID:                 "billing_complaint",
		Title:              "Fehlerhafte Rechnung",
		Description:        "Ein Kunde wurde doppelt belastet und verlangt eine Erklärung.",
		DefaultPersonality: PersonalityAngry,
		Opening:            "Ich wurde diesen Monat zweimal abgebucht! Was soll das?",
		Keywords:           []string{"rechnung", "betrag", "abbuchung", "rückerstattung"},
	},
	{
		ID:                 "technical_issue",
		Title:              "Technisches Problem",
		Description:        "Das Gerät des Kunden verbindet sich nicht mehr mit dem Internet.",
		DefaultPersonality: PersonalityConfused,
		Opening:            "Mein Router blinkt rot und ich habe kein Internet. Ich weiß nicht, was ich tun soll.",
		Keywords:           []string{"neustart", "einstellung", "router", "techniker"},
	},
	{
		ID:                 "delivery_delay",
		Title:              "Verspätete Lieferung",
		Description:        "Eine Bestellung ist seit einer Woche überfällig.",
		DefaultPersonality: PersonalityImpatient,
		Opening:            "Meine Bestellung sollte vor einer Woche ankommen. Wo ist sie?",
		Keywords:           []string{"sendung", "lieferung", "sendungsverfolgung", "zustellung"},
	},
	{
		ID:                 "contract_cancellation",
		Title:              "Vertragskündigung",
		Description:        "Ein langjähriger Kunde möchte seinen Vertrag kündigen.",
		DefaultPersonality: PersonalityFriendly,
		Opening:            "Guten Tag, ich möchte meinen Vertrag zum nächsten Monat kündigen.",
		Keywords:           []string{"kündigung", "vertrag", "frist", "treue"},
	},
}

func Scenarios() []Scenario {
	out := make([]Scenario, len(scenarios))
	copy(out, scenarios)
	return out
}

func FindScenario(id string) (Scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}

type personality struct {
	empathyWeight    float64
	clarityExtra     float64
	maxPatientLength int
}

var personalities = map[string]personality{
	PersonalityAngry:     {empathyWeight: 1.5},
	PersonalityConfused:  {empathyWeight: 1.0, clarityExtra: 2},
	PersonalityImpatient: {empathyWeight: 1.0, maxPatientLength: 300},
	PersonalityFriendly:  {empathyWeight: 0.8},
}

func ValidPersonality(name string) bool {
	_, ok := personalities[name]
	return ok
}

func personalityProfile(name string) personality {
	if p, ok := personalities[name]; ok {
		return p
	}
	return personality{empathyWeight: 1.0}
}
