/*
Package randx provides identifier generation helpers.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

const (
	// Base62Chars is the character set used for short random suffixes.
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the size of the Base62 character set.
	Base62Len = int64(len(Base62Chars))
)

// MessageID generates a UUID v4 string used as a message identifier.
func MessageID() string {
	return uuid.New().String()
}

// DisplayName generates a fallback display name with a "User_" prefix and
// six random Base62 characters, used when registration omits a name.
func DisplayName() (string, error) {
	const suffixLength = 6
	result := make([]byte, suffixLength)

	for i := range suffixLength {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number for display name: %v", err)
		}
		result[i] = Base62Chars[num.Int64()]
	}

	return "User_" + string(result), nil
}
