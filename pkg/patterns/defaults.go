package patterns

import "fmt"

// Default returns a library loaded with the built-in healthcare patterns.
func Default(threshold float64, maxSamples int) *Library {
	l := NewLibrary(threshold, maxSamples)
	for _, d := range builtins {
		var err error
		if d.match != nil {
			err = l.RegisterFunc(d.name, d.match, d.keywords)
		} else {
			err = l.Register(d.name, d.expressions, d.keywords)
		}
		if err != nil {
			panic(fmt.Sprintf("built-in pattern: %v", err))
		}
	}
	for _, d := range builtins {
		if len(d.supersedes) == 0 {
			continue
		}
		if err := l.Supersede(d.name, d.supersedes...); err != nil {
			panic(fmt.Sprintf("built-in pattern: %v", err))
		}
	}
	return l
}

type builtin struct {
	name        string
	expressions []string
	match       Matcher
	keywords    []string
	supersedes  []string
}

var builtins = []builtin{
	{
		name:       "npi",
		match:      IsNPI,
		keywords:   []string{"npi", "provider_id"},
		supersedes: []string{"claim_number", "member_id", "phone"},
	},
	{
		name:        "claim_number",
		expressions: []string{`^\d{5,20}$`, `^[A-Za-z0-9]{5,15}-[A-Za-z0-9]{3,10}$`},
		keywords:    []string{"claim_id", "claim_number", "claim_no", "claim_nbr", "icn"},
	},
	{
		name:        "member_id",
		expressions: []string{`^\d{8,12}$`, `^[A-Z]{2,3}\d{6,10}$`},
		keywords:    []string{"member_id", "subscriber_id", "mbr_id", "member_number", "mbr_num"},
	},
	{
		name:        "date_iso",
		expressions: []string{`^\d{4}-(0[1-9]|1[0-2])-(0[1-9]|[12]\d|3[01])([T ]\d{2}:\d{2}(:\d{2}(\.\d+)?)?Z?)?$`},
		keywords:    []string{"date", "dob", "dt"},
	},
	{
		name:        "date_us",
		expressions: []string{`^(0?[1-9]|1[0-2])/(0?[1-9]|[12]\d|3[01])/(\d{4}|\d{2})$`},
		keywords:    []string{"date", "dob", "dt"},
	},
	{
		name:        "currency",
		expressions: []string{`^-?\$?\d{1,3}(,\d{3})+(\.\d{2})?$`, `^-?\$?\d+\.\d{2}$`, `^-?\$\d+$`},
		keywords:    []string{"amount", "amt", "paid", "charge", "cost", "price", "allowed"},
	},
	{
		name:        "phone",
		expressions: []string{`^\d{10}$`, `^\(?\d{3}\)?[\s.-]?\d{3}[\s.-]\d{4}$`, `^\+1\d{10}$`},
		keywords:    []string{"phone", "telephone", "fax"},
	},
	{
		name:        "zip_code",
		expressions: []string{`^\d{5}(-\d{4})?$`},
		keywords:    []string{"zip", "zip_code", "postal_code"},
	},
	{
		name:        "tax_id",
		expressions: []string{`^\d{2}-\d{7}$`, `^\d{9}$`},
		keywords:    []string{"tax_id", "tin", "ein"},
	},
	{
		name:        "email",
		expressions: []string{`^[^@\s]+@[^@\s]+\.[^@\s]+$`},
		keywords:    []string{"email", "mail"},
	},
	{
		name:        "ssn",
		expressions: []string{`^\d{3}-\d{2}-\d{4}$`},
		keywords:    []string{"ssn", "social_security"},
	},
}

// IsNPI validates a National Provider Identifier: ten digits, a leading 1 or
// 2, and a Luhn check digit computed over the value prefixed with 80840.
func IsNPI(v string) bool {
	if len(v) != 10 || (v[0] != '1' && v[0] != '2') {
		return false
	}
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return false
		}
	}

	digits := "80840" + v
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
