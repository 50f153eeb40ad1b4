package mockdata

import (
	"fmt"
	"strings"
)

var (
	cnpjWeights1 = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeights2 = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// CPF returns a formatted CPF (000.000.000-00) with valid check digits.
func (g *Generator) CPF() string {
	d := make([]int, 9, 11)
	for i := range d {
		d[i] = g.rng.IntN(10)
	}
	d = append(d, cpfCheck(d))
	d = append(d, cpfCheck(d))

	s := joinDigits(d)
	return fmt.Sprintf("%s.%s.%s-%s", s[0:3], s[3:6], s[6:9], s[9:])
}

// CNPJ returns a formatted headquarters CNPJ (00.000.000/0001-00) with valid
// check digits.
func (g *Generator) CNPJ() string {
	d := make([]int, 8, 14)
	for i := range d {
		d[i] = g.rng.IntN(10)
	}
	d = append(d, 0, 0, 0, 1)
	d = append(d, cnpjCheck(d, cnpjWeights1))
	d = append(d, cnpjCheck(d, cnpjWeights2))

	s := joinDigits(d)
	return fmt.Sprintf("%s.%s.%s/%s-%s", s[0:2], s[2:5], s[5:8], s[8:12], s[12:])
}

// ValidCPF checks the check digits of a CPF, formatted or not. Sequences of
// one repeated digit are rejected.
func ValidCPF(value string) bool {
	d, ok := parseDigits(value, 11)
	if !ok || repeated(d) {
		return false
	}
	return cpfCheck(d[:9]) == d[9] && cpfCheck(d[:10]) == d[10]
}

// ValidCNPJ checks the check digits of a CNPJ, formatted or not.
func ValidCNPJ(value string) bool {
	d, ok := parseDigits(value, 14)
	if !ok || repeated(d) {
		return false
	}
	return cnpjCheck(d[:12], cnpjWeights1) == d[12] && cnpjCheck(d[:13], cnpjWeights2) == d[13]
}

// cpfCheck computes the next check digit; weights run from len+1 down to 2.
func cpfCheck(d []int) int {
	sum := 0
	for i, v := range d {
		sum += v * (len(d) + 1 - i)
	}
	return (sum * 10) % 11 % 10
}

func cnpjCheck(d []int, weights []int) int {
	sum := 0
	for i, v := range d {
		sum += v * weights[i]
	}
	if sum%11 < 2 {
		return 0
	}
	return 11 - sum%11
}

func parseDigits(value string, want int) ([]int, bool) {
	var d []int
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
			d = append(d, int(r-'0'))
		case strings.ContainsRune(".-/ ", r):
		default:
			return nil, false
		}
	}
	return d, len(d) == want
}

func repeated(d []int) bool {
	for _, v := range d[1:] {
		if v != d[0] {
			return false
		}
	}
	return true
}

func joinDigits(d []int) string {
	b := make([]byte, len(d))
	for i, v := range d {
		b[i] = byte('0' + v)
	}
	return string(b)
}
