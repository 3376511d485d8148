package checkout

import (
	"strconv"
	"strings"
)

// Form is the raw checkout submission; it lives only for the duration
// of one request.
type Form struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	CardNumber string `json:"card_number"`
	ExpiryDate string `json:"expiry_date"`
	CVV        string `json:"cvv"`
}

// ValidationErrors collects every failed field rule; validation never
// stops at the first failure.
type ValidationErrors []string

func (e ValidationErrors) Error() string {
	return strings.Join(e, "; ")
}

const minCardDigits = 13

// Trimmed returns the form with surrounding whitespace stripped from
// every field. All validation and order building runs on this form, so
// padded submissions never leak into stored shipping data.
func (f Form) Trimmed() Form {
	f.Name = strings.TrimSpace(f.Name)
	f.Address = strings.TrimSpace(f.Address)
	f.CardNumber = strings.TrimSpace(f.CardNumber)
	f.ExpiryDate = strings.TrimSpace(f.ExpiryDate)
	f.CVV = strings.TrimSpace(f.CVV)
	return f
}

// ValidateForm evaluates each field rule independently and returns all
// applicable errors.
func ValidateForm(f Form) ValidationErrors {
	f = f.Trimmed()

	var errs ValidationErrors

	if f.Name == "" {
		errs = append(errs, "Name is required")
	}
	if f.Address == "" {
		errs = append(errs, "Address is required")
	}
	if len(strings.ReplaceAll(f.CardNumber, " ", "")) < minCardDigits {
		errs = append(errs, "Invalid card number")
	}
	errs = append(errs, validateExpiry(f.ExpiryDate)...)
	if len(f.CVV) < 3 {
		errs = append(errs, "Invalid CVV")
	}

	return errs
}

func validateExpiry(expiry string) ValidationErrors {
	if expiry == "" {
		return ValidationErrors{"Expiry date is required"}
	}

	parts := strings.Split(expiry, "/")
	if len(parts) != 2 {
		return ValidationErrors{"Invalid expiry date format (MM/YY)"}
	}

	month, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return ValidationErrors{"Invalid expiry date format (MM/YY)"}
	}
	if month < 1 || month > 12 {
		return ValidationErrors{"Invalid expiry month"}
	}

	return nil
}

// MaskCard hides all but the last four digits. Inputs shorter than four
// digits come back untouched.
func MaskCard(cardNumber string) string {
	cardNumber = strings.ReplaceAll(cardNumber, " ", "")
	if len(cardNumber) < 4 {
		return cardNumber
	}
	return "**** **** **** " + cardNumber[len(cardNumber)-4:]
}
