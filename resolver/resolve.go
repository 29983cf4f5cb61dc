package resolver

import (
	"regexp"
	"sort"
	"strings"

	"github.com/derek2403/token2049/core"
)

var (
	mentionPattern = regexp.MustCompile(`@[A-Za-z ]+`)
	amountPattern  = regexp.MustCompile(`\$\d+(?:\.\d+)?`)
)

// Result is the outcome of resolving one message.
type Result struct {
	ProcessedText string                 `json:"processedText"`
	Mentions      []core.ResolvedMention `json:"mentions"`
	Amounts       []core.ResolvedAmount  `json:"amounts"`
}

type match struct {
	start, end  int
	replacement string
}

// Resolve substitutes @name mentions with wallet addresses and $amount
// tokens with settlement-token amounts. Mentions that match no contact are
// left verbatim. Resolve performs no I/O.
func Resolve(text string, dir *Directory, rate Rate) Result {
	res := Result{
		Mentions: []core.ResolvedMention{},
		Amounts:  []core.ResolvedAmount{},
	}

	var matches []match
	for _, loc := range mentionPattern.FindAllStringIndex(text, -1) {
		token := text[loc[0]:loc[1]]
		contact, matched, ok := lookupMention(dir, token[1:])
		if !ok {
			continue
		}
		original := "@" + matched
		res.Mentions = append(res.Mentions, core.ResolvedMention{
			Original:      original,
			WalletAddress: contact.Wallet,
			DisplayName:   contact.Name,
		})
		// Only the matched words are replaced; trailing text stays put.
		start := loc[0]
		end := start + len(original)
		matches = append(matches, match{start: start, end: end, replacement: contact.Wallet})
	}

	for _, loc := range amountPattern.FindAllStringIndex(text, -1) {
		token := text[loc[0]:loc[1]]
		usd := token[1:]
		amount, ok := rate.Convert(usd)
		if !ok {
			continue
		}
		res.Amounts = append(res.Amounts, core.ResolvedAmount{
			Original:    token,
			USDValue:    usd,
			TokenAmount: amount,
		})
		matches = append(matches, match{
			start:       loc[0],
			end:         loc[1],
			replacement: amount + " " + string(rate.Token),
		})
	}

	res.ProcessedText = apply(text, matches)
	return res
}

// lookupMention tries the longest leading run of words first so that
// "@Bob and" resolves to Bob while "@Mary Jane" still resolves as a whole.
// It returns the exact source text that matched.
func lookupMention(dir *Directory, captured string) (core.Contact, string, bool) {
	if strings.HasPrefix(captured, " ") {
		// "@ Alice" is not a mention.
		return core.Contact{}, "", false
	}
	var cuts []int
	for i := 1; i < len(captured); i++ {
		if captured[i] == ' ' && captured[i-1] != ' ' {
			cuts = append(cuts, i)
		}
	}
	cuts = append(cuts, len(strings.TrimRight(captured, " ")))

	for i := len(cuts) - 1; i >= 0; i-- {
		name := captured[:cuts[i]]
		if c, ok := dir.FindByName(name); ok {
			return c, name, true
		}
	}
	return core.Contact{}, "", false
}

// apply writes the replacements in source order. Matches never overlap:
// mentions are letters and spaces, amounts start with "$".
func apply(text string, matches []match) string {
	if len(matches) == 0 {
		return text
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].start < matches[j].start })

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(text[last:m.start])
		b.WriteString(m.replacement)
		last = m.end
	}
	b.WriteString(text[last:])
	return b.String()
}
