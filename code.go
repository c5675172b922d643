package events

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const (
	codeMin = 10000
	codeMax = 99999
)

// CodeTTL is how long a verification or reset code stays redeemable.
const CodeTTL = 30 * time.Minute

// CodeSource produces one-time codes. Handlers take one so tests can
// pin the value.
type CodeSource func() (string, error)

// GenerateCode returns a 5 digit code drawn uniformly from
// [10000, 99999] using the system CSPRNG.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate verification code")
	}
	return strconv.FormatInt(n.Int64()+codeMin, 10), nil
}
