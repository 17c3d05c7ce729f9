package correlate

import "strings"

// defaultAliases maps pool-feed team display names to the moneyline feed's
// spelling. The moneyline feed is arbitrarily chosen as the naming authority;
// names absent from the table pass through unchanged apart from whitespace
// trimming.
var defaultAliases = map[string]string{
	"Astralis":         "Astralis",
	"BIG":              "BIG",
	"G2":               "G2",
	"Liquid":           "Team Liquid",
	"Cloud9":           "Cloud9",
	"Rebels":           "Rebels Gaming",
	"Eternal Fire":     "Eternal Fire",
	"BB":               "BB Team",
	"Ence":             "Ence",
	"Heroic":           "Heroic",
	"FURIA":            "FURIA Esports",
	"TheMongolz":       "TheMongolz",
	"Spirit":           "Team Spirit",
	"Apeks":            "Apeks",
	"GamerLegion":      "GamerLegion",
	"M80":              "M80",
	"Rooster":          "Rooster",
	"VP":               "Virtus.pro",
	"Alliance":         "Alliance",
	"Spirit Academy":   "Spirit Academy",
	"Sangal":           "Sangal Esports",
	"ECSTATIC":         "ECSTATIC",
	"Into the Breach":  "Into The Breach",
	"BIG Academy":      "BIG OMEN Academy",
	"BLEED":            "Bleed",
	"Metizport":        "Metizport",
	"Preasy":           "Preasy",
	"Entropiq":         "Entropiq",
	"Sprout":           "Sprout",
	"ALTERNATE aTTaX":  "Alternate Attax",
}

// Canonicalize resolves a team display name against the alias table. Unmapped
// names are returned trimmed but otherwise untouched.
func Canonicalize(aliases map[string]string, name string) string {
	trimmed := strings.TrimSpace(name)
	if canonical, ok := aliases[trimmed]; ok {
		return canonical
	}
	return trimmed
}

// DefaultAliases returns a copy of the built-in alias table so callers can
// extend it from configuration without mutating the package default.
func DefaultAliases() map[string]string {
	out := make(map[string]string, len(defaultAliases))
	for k, v := range defaultAliases {
		out[k] = v
	}
	return out
}
