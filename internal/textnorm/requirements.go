package textnorm

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Canonical requirement keys.
const (
	KeyOS       = "OS"
	KeyCPU      = "CPU"
	KeyRAM      = "RAM"
	KeyGPU      = "GPU"
	KeyStorage  = "Storage"
	KeyDirectX  = "DirectX"
	KeyNetwork  = "Network"
	KeySound    = "Sound"
	KeyOther    = "Other"
	valueJoiner = " / "
)

// templateOrder is the fixed line order of a requirement template. Keys not
// listed here follow in alphabetical order.
var templateOrder = []string{KeyOS, KeyCPU, KeyRAM, KeyGPU, KeyStorage, KeyDirectX, KeyNetwork, KeySound}

type keyAlias struct {
	key     string
	aliases []string
}

// keyAliases maps the labels catalogs use to canonical keys.
var keyAliases = []keyAlias{
	{KeyOS, []string{"Operating System", "OS"}},
	{KeyCPU, []string{"Processor", "CPU"}},
	{KeyGPU, []string{"Graphics Card", "Graphics", "Video Card", "GPU"}},
	{KeyRAM, []string{"Memory", "RAM"}},
	{KeyStorage, []string{"Storage", "Hard Drive", "Hard Disk Space", "Disk Space", "Disk", "HDD", "SSD"}},
	{KeyDirectX, []string{"DirectX", "Direct X"}},
	{KeyNetwork, []string{"Network", "Internet"}},
	{KeySound, []string{"Sound Card", "Sound", "Audio"}},
	{KeyOther, []string{"Additional Notes", "Notes"}},
}

// legalTriggers start boilerplate that runs to the end of a value.
var legalTriggers = []string{
	"installation",
	"please refer",
	"please note",
	"please see",
	"terms of service",
	"terms of use",
	"end user license",
	"eula",
	"privacy policy",
	"all rights reserved",
	"for more information",
	"requires acceptance",
	"©",
}

var (
	aliasToKey map[string]string
	keyPattern *regexp.Regexp
	legalCut   *regexp.Regexp

	urlPattern       = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+)`)
	trailingPunctSet = " \t.,;:-–—/|"
	leadingPunctSet  = " \t:-–—|"
)

func init() {
	aliasToKey = make(map[string]string)
	var all, titled []string
	for _, ka := range keyAliases {
		for _, a := range ka.aliases {
			aliasToKey[strings.ToLower(a)] = ka.key
			all = append(all, a)
			if isTitled(a) {
				titled = append(titled, a)
			}
		}
	}

	// A key starts a word in any casing, or follows the previous value
	// without a separator ("64 BitProcessor:") when written in the
	// catalog's own casing. Acronyms like OS or RAM always need a word
	// boundary. "OS *:" is Steam's footnote form.
	keyPattern = regexp.MustCompile(`((?:\b(?i:` + aliasAlternation(all) + `))|(?:` +
		aliasAlternation(titled) + `))\s*\*?\s*:`)

	triggers := make([]string, len(legalTriggers))
	for i, t := range legalTriggers {
		triggers[i] = regexp.QuoteMeta(t)
	}
	legalCut = regexp.MustCompile(`(?i)(` + strings.Join(triggers, "|") + `)`)
}

// aliasAlternation joins aliases longest first so "Sound Card" wins over
// "Sound".
func aliasAlternation(aliases []string) string {
	sorted := append([]string(nil), aliases...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	quoted := make([]string, len(sorted))
	for i, a := range sorted {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(a), " ", `\s+`)
	}
	return strings.Join(quoted, "|")
}

// isTitled reports whether alias is a capitalized word such as "Memory"
// rather than an acronym.
func isTitled(alias string) bool {
	return alias != "" && unicode.IsUpper(rune(alias[0])) && strings.ToUpper(alias) != alias
}

// splitKeys puts every recognized key that appears mid-line on its own
// line.
func splitKeys(s string) string {
	locs := keyPattern.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return s
	}
	var b strings.Builder
	prev := 0
	for _, loc := range locs {
		b.WriteString(s[prev:loc[0]])
		if loc[0] > 0 && s[loc[0]-1] != '\n' {
			b.WriteByte('\n')
		}
		prev = loc[0]
	}
	b.WriteString(s[prev:])
	return b.String()
}

func canonicalKey(alias string) string {
	norm := strings.ToLower(strings.Join(strings.Fields(alias), " "))
	if k, ok := aliasToKey[norm]; ok {
		return k
	}
	return KeyOther
}

// ParseRequirementBlock splits a raw requirement block into values per
// canonical key. Text with no recognizable key, including anything before
// the first key, is kept under "Other".
func ParseRequirementBlock(raw string) map[string][]string {
	out := make(map[string][]string)
	text := Clean(raw)
	if text == "" {
		return out
	}

	locs := keyPattern.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		if v := cleanValue(text); v != "" {
			out[KeyOther] = []string{v}
		}
		return out
	}
	if v := cleanValue(text[:locs[0][0]]); v != "" {
		out[KeyOther] = []string{v}
	}

	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		v := cleanValue(text[loc[1]:end])
		if v == "" {
			continue
		}
		key := canonicalKey(text[loc[2]:loc[3]])
		out[key] = appendMissing(out[key], v)
	}
	return out
}

// cleanValue drops boilerplate tails and URLs, collapses whitespace and
// trims dangling punctuation.
func cleanValue(v string) string {
	if loc := legalCut.FindStringIndex(v); loc != nil {
		v = v[:loc[0]]
	}
	v = urlPattern.ReplaceAllString(v, " ")
	v = strings.Join(strings.Fields(v), " ")
	v = strings.TrimRight(v, trailingPunctSet)
	v = strings.TrimLeft(v, leadingPunctSet)
	return v
}

func appendMissing(list []string, v string) []string {
	for _, x := range list {
		if strings.EqualFold(x, v) {
			return list
		}
	}
	return append(list, v)
}

// BuildTemplate renders parsed requirements as "Key: value" lines in the
// canonical key order. Multiple values for one key are joined with " / ".
func BuildTemplate(parts map[string][]string) string {
	if len(parts) == 0 {
		return ""
	}

	var b strings.Builder
	write := func(key string) {
		vals := make([]string, 0, len(parts[key]))
		for _, v := range parts[key] {
			if v = strings.TrimSpace(v); v != "" {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 {
			return
		}
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(strings.Join(vals, valueJoiner))
		b.WriteByte('\n')
	}

	fixed := make(map[string]struct{}, len(templateOrder))
	for _, k := range templateOrder {
		fixed[k] = struct{}{}
		write(k)
	}

	rest := make([]string, 0, len(parts))
	for k := range parts {
		if _, ok := fixed[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		write(k)
	}

	return strings.TrimRight(b.String(), "\n")
}

// Normalize runs the full pipeline: Clean, ParseRequirementBlock and
// BuildTemplate.
func Normalize(raw string) string {
	return BuildTemplate(ParseRequirementBlock(raw))
}
