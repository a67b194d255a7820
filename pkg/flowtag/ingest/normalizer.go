package ingest

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Replacement is an ordered from → to rewrite.
type Replacement struct {
	From string
	To   string
}

// punctuation is replaced by a space. Apostrophes are handled separately
// because contractions need them; hyphens and underscores are content.
const punctuation = ".,;:!?\"()[]{}<>/\\|*+=~^%$#@&`“”„«»…–—•·"

// invisible runes are deleted outright so they never split a word.
var invisible = map[rune]struct{}{
	'\u00ad': {}, // soft hyphen
	'\u200b': {},
	'\u200c': {},
	'\u200d': {},
	'\u2060': {},
	'\ufeff': {},
}

var apostrophes = strings.NewReplacer("\u2019", "'", "\u2018", "'", "\u02bc", "'")

// DefaultSubstitutions rewrite literal phrases before punctuation is removed.
var DefaultSubstitutions = []Replacement{
	{From: "a: drive", To: "adrive"},
	{From: "c: drive", To: "cdrive"},
	{From: "d: drive", To: "ddrive"},
	{From: "e-mail", To: "email"},
	{From: "wi-fi", To: "wifi"},
}

// DefaultContractions expand whole words.
var DefaultContractions = map[string]string{
	"it's":    "it has",
	"can't":   "can not",
	"cannot":  "can not",
	"won't":   "will not",
	"shan't":  "shall not",
	"ain't":   "is not",
	"let's":   "let us",
	"he's":    "he is",
	"she's":   "she is",
	"that's":  "that is",
	"what's":  "what is",
	"there's": "there is",
	"where's": "where is",
	"who's":   "who is",
	"y'all":   "you all",
}

// DefaultEnclitics expand contracted word endings. Order matters: the first
// matching suffix wins.
var DefaultEnclitics = []Replacement{
	{From: "n't", To: " not"},
	{From: "'re", To: " are"},
	{From: "'ve", To: " have"},
	{From: "'ll", To: " will"},
	{From: "'d", To: " would"},
	{From: "'m", To: " am"},
}

// DefaultGenitives drop possessive endings.
var DefaultGenitives = []Replacement{
	{From: "'s", To: ""},
	{From: "s'", To: "s"},
}

// Normalizer case-folds and cleans raw text into the canonical form every
// later stage expects. It is safe for concurrent use.
type Normalizer struct {
	substitutions []Replacement
	contractions  map[string]string
	enclitics     []Replacement
	genitives     []Replacement
	stripHTML     bool
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithSubstitutions replaces the literal substitution table.
func WithSubstitutions(r []Replacement) NormalizerOption {
	return func(n *Normalizer) { n.substitutions = lowerAll(r) }
}

// WithContractions replaces the whole-word contraction table.
func WithContractions(m map[string]string) NormalizerOption {
	return func(n *Normalizer) {
		n.contractions = make(map[string]string, len(m))
		for k, v := range m {
			n.contractions[strings.ToLower(k)] = strings.ToLower(v)
		}
	}
}

// WithGenitives replaces the genitive table.
func WithGenitives(r []Replacement) NormalizerOption {
	return func(n *Normalizer) { n.genitives = lowerAll(r) }
}

// WithHTMLStripping extracts text nodes from markup before normalizing.
func WithHTMLStripping(enabled bool) NormalizerOption {
	return func(n *Normalizer) { n.stripHTML = enabled }
}

// NewNormalizer creates a normalizer with the default tables.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		substitutions: DefaultSubstitutions,
		contractions:  DefaultContractions,
		enclitics:     DefaultEnclitics,
		genitives:     DefaultGenitives,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize returns the canonical form of text. Normalizing an already
// normalized string returns it unchanged.
func (n *Normalizer) Normalize(text string) string {
	if n.stripHTML {
		text = StripHTML(text)
	}
	return n.normalize(text)
}

// NormalizeTerm normalizes a dictionary phrase the way Normalize treats
// input text, except that markup is never stripped.
func (n *Normalizer) NormalizeTerm(term string) string {
	return n.normalize(term)
}

func (n *Normalizer) normalize(text string) string {
	text = apostrophes.Replace(text)
	text = strings.ToLower(text)
	text = removeInvisible(text)
	text = foldDiacritics(text)

	text = collapse(text)
	for _, r := range n.substitutions {
		text = strings.ReplaceAll(text, r.From, r.To)
	}

	text = strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) || unicode.IsControl(r) {
			return ' '
		}
		return r
	}, text)

	words := strings.Fields(text)
	for i, w := range words {
		words[i] = n.expand(w)
	}
	return collapse(strings.Join(words, " "))
}

// expand rewrites one word through the contraction, enclitic and genitive
// tables, then drops any apostrophe left over. A word that only becomes a
// contraction once its apostrophe is gone ("can'not") is expanded too, so
// the result is stable under a second pass.
func (n *Normalizer) expand(w string) string {
	if to, ok := n.contractions[w]; ok {
		return to
	}
	if !strings.Contains(w, "'") {
		return w
	}
	for _, r := range n.enclitics {
		if len(w) > len(r.From) && strings.HasSuffix(w, r.From) {
			w = w[:len(w)-len(r.From)] + r.To
			break
		}
	}
	for _, r := range n.genitives {
		if len(w) > len(r.From) && strings.HasSuffix(w, r.From) {
			w = w[:len(w)-len(r.From)] + r.To
			break
		}
	}
	parts := strings.Fields(strings.ReplaceAll(w, "'", ""))
	for i, p := range parts {
		if to, ok := n.contractions[p]; ok {
			parts[i] = to
		}
	}
	return strings.Join(parts, " ")
}

// StripHTML returns the text content of an HTML fragment, dropping script
// and style elements. Input that fails to parse is returned unchanged.
func StripHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && (node.Data == "script" || node.Data == "style") {
			return
		}
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
			b.WriteByte(' ')
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return b.String()
}

func removeInvisible(s string) string {
	return strings.Map(func(r rune) rune {
		if _, ok := invisible[r]; ok {
			return -1
		}
		return r
	}, s)
}

// foldDiacritics strips combining marks: "café" → "cafe".
func foldDiacritics(s string) string {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return s
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func lowerAll(in []Replacement) []Replacement {
	out := make([]Replacement, len(in))
	for i, r := range in {
		out[i] = Replacement{From: strings.ToLower(r.From), To: strings.ToLower(r.To)}
	}
	return out
}
