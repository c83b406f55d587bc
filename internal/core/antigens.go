package core

// superscripts maps letters to their Unicode superscript forms for
// antigen labels (Lea renders as Leᵃ, JsB as Jsᴮ). Letters without a
// superscript form (Q, q) pass through unchanged.
var superscripts = map[rune]rune{
	'A': 'ᴬ', 'B': 'ᴮ', 'C': 'ᶜ', 'D': 'ᴰ', 'E': 'ᴱ', 'F': 'ᶠ', 'G': 'ᴳ', 'H': 'ᴴ',
	'I': 'ᴵ', 'J': 'ᴶ', 'K': 'ᴷ', 'L': 'ᴸ', 'M': 'ᴹ', 'N': 'ᴺ', 'O': 'ᴼ', 'P': 'ᴾ',
	'R': 'ᴿ', 'T': 'ᵀ', 'U': 'ᵁ', 'V': 'ⱽ', 'W': 'ᵂ',
	'a': 'ᵃ', 'b': 'ᵇ', 'c': 'ᶜ', 'd': 'ᵈ', 'e': 'ᵉ', 'f': 'ᶠ', 'g': 'ᵍ', 'h': 'ʰ',
	'i': 'ⁱ', 'j': 'ʲ', 'k': 'ᵏ', 'l': 'ˡ', 'm': 'ᵐ', 'n': 'ⁿ', 'o': 'ᵒ', 'p': 'ᵖ',
	'r': 'ʳ', 's': 'ˢ', 't': 'ᵗ', 'u': 'ᵘ', 'v': 'ᵛ', 'w': 'ʷ', 'x': 'ˣ', 'y': 'ʸ',
	'z': 'ᶻ',
}

// FormatAntigen renders an antigen label with its last character as a
// superscript. Single-character labels are returned unchanged.
func FormatAntigen(ag string) string {
	runes := []rune(ag)
	if len(runes) <= 1 {
		return ag
	}
	last := runes[len(runes)-1]
	if sup, ok := superscripts[last]; ok {
		last = sup
	}
	return string(runes[:len(runes)-1]) + string(last)
}

// AntigenStatus is the outcome of the exclusion analysis for one
// antigen column. The values are the display labels used on screen and
// in reports.
type AntigenStatus string

const (
	StatusConfirmed3x AntigenStatus = "Bestätigt (3x +)"
	StatusConfirmed2x AntigenStatus = "Bestätigt (2x +)"
	StatusNotExcluded AntigenStatus = "Nicht ausgeschlossen"
	StatusNoReaction  AntigenStatus = "Keine Reaktion"
	StatusExcluded    AntigenStatus = "Ausgestrichen"
)

// StatusColors pairs each status with its display color.
var StatusColors = map[AntigenStatus]string{
	StatusConfirmed3x: "#2d6a4f",
	StatusConfirmed2x: "#b7e4c7",
	StatusNotExcluded: "#ffd166",
	StatusNoReaction:  "#e9ecef",
	StatusExcluded:    "#e63946",
}

// antigenPair names two antithetical antigens whose joint reactivity
// determines zygosity.
type antigenPair struct {
	a, b string
}

// exclusionPairs lists the antithetical antigen pairs evaluated during
// exclusion, following standard blood-group systems (Rh, Kell, Kidd,
// Duffy, Lewis, MNS, Lutheran).
var exclusionPairs = []antigenPair{
	{"C", "c"}, {"E", "e"}, {"K", "k"}, {"KpA", "KpB"},
	{"JsA", "JsB"}, {"FyA", "FyB"}, {"Jka", "Jkb"},
	{"Lea", "Leb"}, {"M", "N"}, {"S", "s"}, {"LuA", "LuB"},
}

// allowedHetero lists antigens that may be excluded even on a
// heterozygous row because their antibodies show dosage-independent
// reactivity.
var allowedHetero = map[string]bool{
	"CW": true, "K": true, "KpA": true, "LuA": true,
}

// zygosity classifies a donor's expression of an antithetical pair:
// both antigens positive is heterozygous, exactly one is homozygous,
// neither is negative.
func zygosity(v1, v2 string) string {
	switch {
	case v1 == "+" && v2 == "+":
		return "hetero"
	case v1 == "+" || v2 == "+":
		return "homo"
	default:
		return "negativ"
	}
}
