package wikitext

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Nivmizz7/tarkov-data-overlay/pkg/normalize"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/tasks"
)

var (
	reExperience = regexp.MustCompile(`(?i)([+]?\s*\d[\d,]*)\s*(?:exp\b|xp\b|experience\b)`)
	reReputation = regexp.MustCompile(`(?i)^(.*?)\s*\b(?:rep|reputation|standing)\b\.?\s*:?\s*([+\-−]\s*\d+(?:\.\d+)?)`)
	reMoneyAfter = regexp.MustCompile(`(?i)(\d[\d,]*)\s*(roubles?|rubles?|rub\b|₽|dollars?|usd\b|euros?|eur\b|€)`)
	reMoneyFront = regexp.MustCompile(`([$€₽])\s*(\d[\d,]*)`)
)

var currencies = map[string]string{
	"rouble": "RUB", "roubles": "RUB", "ruble": "RUB", "rubles": "RUB", "rub": "RUB", "₽": "RUB",
	"dollar": "USD", "dollars": "USD", "usd": "USD", "$": "USD",
	"euro": "EUR", "euros": "EUR", "eur": "EUR", "€": "EUR",
}

// Currency maps a currency word or symbol to its code. Unknown input
// returns "".
func Currency(s string) string {
	return currencies[strings.ToLower(strings.TrimSpace(s))]
}

// rewards reads the reward bullets. The first experience line and every
// reputation and money line are kept; other lines only go to Raw.
func (p parser) rewards(bullets []string) tasks.FreeTextRewards {
	r := tasks.FreeTextRewards{Present: true}
	for _, raw := range bullets {
		text := normalize.StripMarkupOnly(raw)
		if text == "" {
			continue
		}
		r.Raw = append(r.Raw, text)

		if m := reReputation.FindStringSubmatch(text); m != nil {
			trader := p.trader(m[1])
			if delta, err := parseDelta(m[2]); err == nil && trader != "" {
				if r.Reputation == nil {
					r.Reputation = make(map[string]float64)
				}
				r.Reputation[trader] += delta
			}
			continue
		}
		if m := reExperience.FindStringSubmatch(text); m != nil {
			if r.Experience == nil {
				r.Experience = atoi(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(m[1]), "+")))
			}
			continue
		}
		if m, ok := money(text); ok {
			r.Money = append(r.Money, m)
		}
	}
	return r
}

func (p parser) trader(s string) string {
	name := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), ":-"))
	if name == "" {
		return ""
	}
	if p.opts.Traders != nil {
		if canonical, ok := p.opts.Traders.Resolve(name); ok {
			return canonical
		}
		for _, found := range p.opts.Traders.FindIn(name) {
			return found
		}
	}
	return name
}

func money(text string) (tasks.MoneyReward, bool) {
	if m := reMoneyAfter.FindStringSubmatch(text); m != nil {
		if n := atoi(m[1]); n != nil {
			return tasks.MoneyReward{Currency: Currency(m[2]), Amount: *n}, true
		}
	}
	if m := reMoneyFront.FindStringSubmatch(text); m != nil {
		if n := atoi(m[2]); n != nil {
			return tasks.MoneyReward{Currency: Currency(m[1]), Amount: *n}, true
		}
	}
	return tasks.MoneyReward{}, false
}

func parseDelta(s string) (float64, error) {
	s = strings.ReplaceAll(s, "−", "-")
	s = strings.ReplaceAll(s, " ", "")
	return strconv.ParseFloat(s, 64)
}
