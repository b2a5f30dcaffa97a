package recovery

import "strings"

// MaskEmail hides most of an email address while keeping it
// recognizable to its owner: "a@b.com" becomes "a***@b***.com".
func MaskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return "***"
	}
	local := email[:at]
	domain := email[at+1:]

	masked := string([]rune(local)[0]) + "***"

	labels := strings.Split(domain, ".")
	if labels[0] != "" {
		labels[0] = string([]rune(labels[0])[0]) + "***"
	}
	return masked + "@" + strings.Join(labels, ".")
}

// MaskPhone hides all but the last four digits of a phone number
func MaskPhone(phone string) string {
	digits := onlyDigits(phone)
	if len(digits) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
