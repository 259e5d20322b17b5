package currency

import "fmt"

// Currency describes a supported currency.
type Currency struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Currencies is the set of supported currencies keyed by ISO code.
var Currencies = map[string]Currency{
	"USD": {Code: "USD", Symbol: "$", Name: "US Dollar"},
	"EUR": {Code: "EUR", Symbol: "€", Name: "Euro"},
	"GBP": {Code: "GBP", Symbol: "£", Name: "British Pound"},
	"JPY": {Code: "JPY", Symbol: "¥", Name: "Japanese Yen"},
	"CAD": {Code: "CAD", Symbol: "C$", Name: "Canadian Dollar"},
	"AUD": {Code: "AUD", Symbol: "A$", Name: "Australian Dollar"},
	"CHF": {Code: "CHF", Symbol: "Fr", Name: "Swiss Franc"},
	"CNY": {Code: "CNY", Symbol: "¥", Name: "Chinese Yuan"},
	"INR": {Code: "INR", Symbol: "₹", Name: "Indian Rupee"},
	"NZD": {Code: "NZD", Symbol: "NZ$", Name: "New Zealand Dollar"},
	"SGD": {Code: "SGD", Symbol: "S$", Name: "Singapore Dollar"},
	"HKD": {Code: "HKD", Symbol: "HK$", Name: "Hong Kong Dollar"},
	"KRW": {Code: "KRW", Symbol: "₩", Name: "South Korean Won"},
	"BRL": {Code: "BRL", Symbol: "R$", Name: "Brazilian Real"},
	"ZAR": {Code: "ZAR", Symbol: "R", Name: "South African Rand"},
	"HUF": {Code: "HUF", Symbol: "Ft", Name: "Hungarian Forint"},
}

// IsValidCode reports whether code is a supported currency code.
func IsValidCode(code string) bool {
	_, ok := Currencies[code]
	return ok
}

// FormatAmount renders an amount with its currency symbol, falling back to
// "<amount> <code>" for unknown codes.
func FormatAmount(amount float64, code string) string {
	c, ok := Currencies[code]
	if !ok {
		return fmt.Sprintf("%.2f %s", amount, code)
	}
	return fmt.Sprintf("%s%.2f", c.Symbol, amount)
}

// Convert converts amount between two currencies using rates expressed
// relative to a common base. If either rate is missing the amount is
// returned unchanged, mirroring how edits behave when rates are stale.
func Convert(amount float64, from, to string, rates map[string]float64) float64 {
	if from == to {
		return amount
	}
	fromRate := rates[from]
	toRate := rates[to]
	if fromRate == 0 || toRate == 0 {
		return amount
	}
	return amount / fromRate * toRate
}

// Rate returns the exchange rate between two currencies, treating missing
// rates as 1.
func Rate(from, to string, rates map[string]float64) float64 {
	if from == to {
		return 1
	}
	fromRate := rates[from]
	if fromRate == 0 {
		fromRate = 1
	}
	toRate := rates[to]
	if toRate == 0 {
		toRate = 1
	}
	return fromRate / toRate
}
