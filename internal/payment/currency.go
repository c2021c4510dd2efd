package payment

import "strings"

const DefaultCurrency = "usd"

// Static country lookup tables. Configuration data, not logic; the
// reconciliation core never reads these.
var countryCurrency = map[string]string{
	"US": "usd",
	"CA": "cad",
	"GB": "gbp",
	"AU": "aud",
	"DE": "eur",
	"FR": "eur",
	"ES": "eur",
	"IT": "eur",
	"NL": "eur",
	"TR": "try",
	"JP": "jpy",
	"IN": "inr",
	"BR": "brl",
	"MX": "mxn",
	"SG": "sgd",
	"CH": "chf",
	"SE": "sek",
	"NO": "nok",
}

var countryPaymentMethods = map[string][]string{
	"US": {"card", "us_bank_account"},
	"GB": {"card", "bacs_debit"},
	"DE": {"card", "sepa_debit", "giropay"},
	"FR": {"card", "sepa_debit"},
	"NL": {"card", "ideal"},
	"MX": {"card", "oxxo"},
}

// CurrencyFor returns the checkout currency for a country code, falling back
// to the default when the country is unknown or empty.
func CurrencyFor(country string) string {
	if c, ok := countryCurrency[strings.ToUpper(country)]; ok {
		return c
	}
	return DefaultCurrency
}

// PaymentMethodsFor returns the payment method types offered in a country.
func PaymentMethodsFor(country string) []string {
	if m, ok := countryPaymentMethods[strings.ToUpper(country)]; ok {
		return m
	}
	return []string{"card"}
}
