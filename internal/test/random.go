package test

import "math/rand/v2"

const (
	loginAlphabet    = "abcdefghijklmnopqrstuvwxyz0123456789"
	passwordAlphabet = loginAlphabet + "ABCDEFGHIJKLMNOPQRSTUVWXYZ!#%*+-_"
	digits           = "0123456789"
)

// RandomString returns a string drawn from alphabet with a length in [minLen, maxLen].
func RandomString(alphabet string, minLen, maxLen int) string {
	if minLen <= 0 {
		minLen = 1
	}
	if maxLen < minLen {
		maxLen = minLen
	}
	buf := make([]byte, minLen+rand.IntN(maxLen-minLen+1))
	for i := range buf {
		buf[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return string(buf)
}

// RandomLogin returns a unique-looking staff login such as "staff-k3x9q2".
func RandomLogin() string {
	return "staff-" + RandomString(loginAlphabet, 6, 10)
}

// RandomPassword returns a password well within the bcrypt length limit.
func RandomPassword() string {
	return RandomString(passwordAlphabet, 8, 24)
}

// RandomPhone returns a local phone number for customer fixtures.
func RandomPhone() string {
	return "555-" + RandomString(digits, 4, 4)
}
