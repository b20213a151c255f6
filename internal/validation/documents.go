package validation

import "strings"

var std = New()

// ValidCPF checks a Brazilian individual taxpayer number. Punctuation is ignored.
func ValidCPF(value string) bool {
	d := digits(value)
	if len(d) != 11 || allSame(d) {
		return false
	}
	return checkDigit(d[:9], 10) == d[9] && checkDigit(d[:10], 11) == d[10]
}

// ValidCNPJ checks a Brazilian company registration number. Punctuation is ignored.
func ValidCNPJ(value string) bool {
	d := digits(value)
	if len(d) != 14 || allSame(d) {
		return false
	}
	first := []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	second := append([]int{6}, first...)
	return cnpjDigit(d[:12], first) == d[12] && cnpjDigit(d[:13], second) == d[13]
}

// ValidEmail uses the validator email rule.
func ValidEmail(value string) bool {
	return std.Var(strings.TrimSpace(value), "required,email") == nil
}

// ValidPhone accepts Brazilian landline (10 digits) and mobile (11 digits, leading 9)
// numbers with a valid area code, optionally prefixed by country code 55.
func ValidPhone(value string) bool {
	d := digits(value)
	if (len(d) == 12 || len(d) == 13) && d[0] == 5 && d[1] == 5 {
		d = d[2:]
	}
	if len(d) != 10 && len(d) != 11 {
		return false
	}
	if d[0] == 0 || d[1] == 0 {
		return false
	}
	if len(d) == 11 && d[2] != 9 {
		return false
	}
	return true
}

func digits(value string) []int {
	out := make([]int, 0, len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			out = append(out, int(r-'0'))
		}
	}
	return out
}

func allSame(d []int) bool {
	for _, v := range d[1:] {
		if v != d[0] {
			return false
		}
	}
	return true
}

// checkDigit computes a CPF verifier over d with weights counting down from start.
func checkDigit(d []int, start int) int {
	sum := 0
	for i, v := range d {
		sum += v * (start - i)
	}
	r := sum * 10 % 11
	if r == 10 {
		return 0
	}
	return r
}

func cnpjDigit(d []int, weights []int) int {
	sum := 0
	for i, v := range d {
		sum += v * weights[i]
	}
	r := sum % 11
	if r < 2 {
		return 0
	}
	return 11 - r
}
