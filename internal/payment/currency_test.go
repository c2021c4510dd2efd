package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrencyFor(t *testing.T) {
	assert.Equal(t, "usd", CurrencyFor("US"))
	assert.Equal(t, "eur", CurrencyFor("de"))
	assert.Equal(t, DefaultCurrency, CurrencyFor(""))
	assert.Equal(t, DefaultCurrency, CurrencyFor("ZZ"))
}

func TestPaymentMethodsFor(t *testing.T) {
	assert.Contains(t, PaymentMethodsFor("NL"), "ideal")
	assert.Equal(t, []string{"card"}, PaymentMethodsFor("ZZ"))
}
