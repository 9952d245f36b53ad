package util

import (
	"regexp"
	"strconv"
	"strings"

	"watchscout-engine/internal/domain"
)

func CleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

var priceRe = regexp.MustCompile(`\d+\.?\d*`)

// ExtractPrice pulls a numeric price out of listing text. European formats
// are the norm on these sources: "5.999,00 €" -> 5999.0, "5999,00" -> 5999.0.
func ExtractPrice(text string) (float64, bool) {
	if text == "" {
		return 0, false
	}
	t := strings.NewReplacer("€", "", "$", "", "£", "", "¥", "").Replace(text)
	t = strings.TrimSpace(t)

	switch {
	case strings.Contains(t, ",") && strings.Contains(t, "."):
		// 5.999,00 -> 5999.00
		t = strings.ReplaceAll(t, ".", "")
		t = strings.ReplaceAll(t, ",", ".")
	case strings.Contains(t, ","):
		t = strings.ReplaceAll(t, ",", ".")
	}

	m := priceRe.FindString(t)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ExtractCurrency guesses the currency from price text. EUR is the default;
// most configured sources are European dealers.
func ExtractCurrency(text string) domain.Currency {
	t := strings.ToUpper(text)
	switch {
	case strings.Contains(text, "€") || strings.Contains(t, "EUR"):
		return domain.CurrencyEUR
	case strings.Contains(t, "CHF") || strings.Contains(t, "SFR"):
		return domain.CurrencyCHF
	case strings.Contains(text, "£") || strings.Contains(t, "GBP"):
		return domain.CurrencyGBP
	case strings.Contains(text, "$") || strings.Contains(t, "USD"):
		return domain.CurrencyUSD
	}
	return domain.CurrencyEUR
}

var manufacturerAliases = map[string]string{
	"a. lange & söhne": "A. Lange & Sohne",
	"a lange":          "A. Lange & Sohne",
	"iwc":              "IWC",
	"ap":               "Audemars Piguet",
	"pp":               "Patek Philippe",
	"vc":               "Vacheron Constantin",
	"jlc":              "Jaeger-LeCoultre",
}

// NormalizeManufacturer title-cases brand names and expands the usual
// collector shorthand (AP, PP, JLC, ...).
func NormalizeManufacturer(name string) string {
	name = CleanText(name)
	if name == "" {
		return ""
	}
	if alias, ok := manufacturerAliases[strings.ToLower(name)]; ok {
		return alias
	}

	words := strings.Fields(strings.ToLower(name))
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// TruncateMarkup bounds raw element markup before it is handed to the
// oracle, which is rate- and size-constrained.
func TruncateMarkup(markup string, max int) string {
	if max <= 0 || len(markup) <= max {
		return markup
	}
	return markup[:max] + "..."
}
