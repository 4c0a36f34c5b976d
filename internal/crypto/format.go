package crypto

const (
	mask          = "**** **** **** "
	visibleDigits = 4
)

// First8 returns the plaintext prefix stored for BIN-range search.
func First8(rawNumber string) string {
	return rawNumber[:8]
}

// Last4 returns the plaintext suffix stored for display and suffix search.
func Last4(rawNumber string) string {
	return rawNumber[len(rawNumber)-visibleDigits:]
}

// Mask renders a card number safe for logs and responses.
func Mask(rawNumber string) string {
	return mask + Last4(rawNumber)
}
