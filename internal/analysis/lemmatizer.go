package analysis

// Lemmatizer maps tokens to canonical base forms using irregular-word
// lookup tables followed by suffix-stripping heuristics. Input must
// already be lowercased; the pipeline guarantees that.
type Lemmatizer struct{}

// NewLemmatizer creates a lemmatizer.
func NewLemmatizer() *Lemmatizer {
	return &Lemmatizer{}
}

// irregularVerbs maps inflected verb forms to their base form.
var irregularVerbs = map[string]string{
	"am": "be", "is": "be", "are": "be", "was": "be", "were": "be", "been": "be", "being": "be",
	"has": "have", "had": "have", "having": "have",
	"does": "do", "did": "do", "done": "do",
	"went": "go", "gone": "go", "going": "go", "doing": "do",
	"said": "say",
	"made": "make",
	"got": "get", "gotten": "get",
	"took": "take", "taken": "take",
	"came": "come",
	"saw": "see", "seen": "see",
	"knew": "know", "known": "know",
	"gave": "give", "given": "give",
	"found": "find",
	"thought": "think",
	"told": "tell",
	"became": "become",
	"left": "leave",
	"felt": "feel",
	"brought": "bring",
	"began": "begin", "begun": "begin",
	"kept": "keep",
	"held": "hold",
	"wrote": "write", "written": "write",
	"stood": "stand", "understood": "understand",
	"heard": "hear",
	"meant": "mean",
	"met": "meet",
	"ran": "run",
	"paid": "pay",
	"sat": "sit",
	"spoke": "speak", "spoken": "speak",
	"led": "lead",
	"grew": "grow", "grown": "grow",
	"lost": "lose",
	"fell": "fall", "fallen": "fall",
	"sent": "send",
	"built": "build",
	"drew": "draw", "drawn": "draw",
	"broke": "break", "broken": "break",
	"spent": "spend",
	"rose": "rise", "risen": "rise",
	"drove": "drive", "driven": "drive",
	"bought": "buy",
	"wore": "wear", "worn": "wear",
	"chose": "choose", "chosen": "choose",
	"ate": "eat", "eaten": "eat",
	"flew": "fly", "flown": "fly",
	"sang": "sing", "sung": "sing",
	"swam": "swim", "swum": "swim",
	"threw": "throw", "thrown": "throw",
	"won": "win",
}

// irregularNouns maps irregular plural nouns to their singular form.
var irregularNouns = map[string]string{
	"men": "man", "women": "woman", "children": "child", "people": "person",
	"feet": "foot", "teeth": "tooth", "geese": "goose", "mice": "mouse",
	"oxen": "ox",
	"knives": "knife", "wives": "wife", "lives": "life",
	"leaves": "leaf", "wolves": "wolf", "halves": "half",
	"shelves": "shelf", "loaves": "loaf", "thieves": "thief",
	"indices": "index", "matrices": "matrix", "vertices": "vertex",
	"analyses": "analysis", "crises": "crisis", "theses": "thesis",
	"phenomena": "phenomenon", "criteria": "criterion",
}

// Lemmatize returns the canonical base form of token. Tokens of two
// characters or fewer pass through unchanged, and no rule produces a
// result shorter than two characters.
func (l *Lemmatizer) Lemmatize(token string) string {
	if len(token) <= 2 {
		return token
	}
	if base, ok := irregularVerbs[token]; ok {
		return base
	}
	if base, ok := irregularNouns[token]; ok {
		return base
	}
	return stripSuffix(token)
}

func stripSuffix(word string) string {
	switch {
	case hasSuffix(word, "ies", 2):
		return word[:len(word)-3] + "y" // cities -> city
	case hasSuffix(word, "ves", 2):
		return word[:len(word)-3] + "f" // wolves handled above; scarves -> scarf
	case hasSuffix(word, "ing", 3):
		return stripParticiple(word, 3)
	case hasSuffix(word, "ed", 3):
		return stripParticiple(word, 2)
	case hasSuffix(word, "ily", 2):
		return word[:len(word)-3] + "y" // happily -> happy
	case hasSuffix(word, "ly", 2):
		return word[:len(word)-2] // quickly -> quick
	case hasSuffix(word, "est", 2):
		return undouble(word[:len(word)-3]) // biggest -> big
	case hasSuffix(word, "er", 2):
		return undouble(word[:len(word)-2]) // bigger -> big
	case hasSuffix(word, "es", 2) && sibilantStem(word[:len(word)-2]):
		return word[:len(word)-2] // boxes -> box
	case hasSuffix(word, "s", 2) && !hasSuffix(word, "ss", 0) && !hasSuffix(word, "us", 0) && !hasSuffix(word, "is", 0):
		return word[:len(word)-1] // documents -> document
	}
	return word
}

// hasSuffix reports whether stripping suffix from word leaves a stem of
// at least minStem characters. Rules never shrink a word into nothing.
func hasSuffix(word, suffix string, minStem int) bool {
	return len(word) > len(suffix) &&
		word[len(word)-len(suffix):] == suffix &&
		len(word)-len(suffix) >= minStem
}

// stripParticiple handles -ed and -ing: undoubles a doubled final
// consonant (stopped -> stop, running -> run) and restores a silent e
// when the stem ends consonant-vowel-consonant (moved -> move,
// making -> make).
func stripParticiple(word string, suffixLen int) string {
	stem := word[:len(word)-suffixLen]
	if len(stem) < 2 {
		return word
	}
	if doubledConsonant(stem) {
		return stem[:len(stem)-1]
	}
	if needsSilentE(stem) {
		return stem + "e"
	}
	return stem
}

// undouble removes a doubled final consonant from comparative stems.
func undouble(stem string) string {
	if doubledConsonant(stem) {
		return stem[:len(stem)-1]
	}
	return stem
}

func doubledConsonant(stem string) bool {
	if len(stem) < 3 {
		return false
	}
	last := stem[len(stem)-1]
	return last == stem[len(stem)-2] && !isVowel(last) && last != 'l' && last != 's' && last != 'z'
}

// needsSilentE detects stems like "mak" or "mov" where the original word
// dropped a trailing e before -ed/-ing: consonant, single vowel, then a
// final consonant other than w, x, or y.
func needsSilentE(stem string) bool {
	n := len(stem)
	if n < 3 {
		return false
	}
	last := stem[n-1]
	if isVowel(last) || last == 'w' || last == 'x' || last == 'y' {
		return false
	}
	return isVowel(stem[n-2]) && !isVowel(stem[n-3])
}

// sibilantStem reports whether a stem takes -es rather than -s when
// pluralized (box, church, bus, quiz).
func sibilantStem(stem string) bool {
	if stem == "" {
		return false
	}
	switch stem[len(stem)-1] {
	case 's', 'x', 'z':
		return true
	}
	if len(stem) >= 2 {
		tail := stem[len(stem)-2:]
		return tail == "ch" || tail == "sh"
	}
	return false
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}
