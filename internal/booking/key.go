package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	keyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	keyLength   = 6
)

// NewUnlockKey generates the single-use unlock credential for a reservation.
// The key is short enough to render as a QR code and type on a keypad, but
// drawn from crypto/rand so it is not guessable from the reservation id.
func NewUnlockKey() (string, error) {
	max := big.NewInt(int64(len(keyAlphabet)))
	buf := make([]byte, keyLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate unlock key: %w", err)
		}
		buf[i] = keyAlphabet[n.Int64()]
	}
	return string(buf), nil
}
