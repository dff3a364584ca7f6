package gateway

import (
	"fmt"
	"math"
	"math/big"

	apperrors "github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/platform/errors"
)

var maxGameInt = big.NewInt(math.MaxInt32)

// narrowInt converts a uint256 game stat into an int in [0, MaxInt32].
func narrowInt(field string, v *big.Int) (int, error) {
	if v == nil || v.Sign() < 0 || v.Cmp(maxGameInt) > 0 {
		return 0, apperrors.WithMetadata(apperrors.CodeValueOutOfRange,
			fmt.Sprintf("%s %v is outside [0, %d]", field, v, math.MaxInt32),
			map[string]string{"field": field})
	}
	return int(v.Int64()), nil
}

// narrowUint64 converts a token id into a uint64.
func narrowUint64(field string, v *big.Int) (uint64, error) {
	if v == nil || v.Sign() < 0 || !v.IsUint64() {
		return 0, apperrors.WithMetadata(apperrors.CodeValueOutOfRange,
			fmt.Sprintf("%s %v does not fit uint64", field, v),
			map[string]string{"field": field})
	}
	return v.Uint64(), nil
}

type intField struct {
	name string
	src  *big.Int
	dst  *int
}

// narrowAll narrows fields in order, stopping at the first failure.
func narrowAll(fields ...intField) error {
	for _, f := range fields {
		n, err := narrowInt(f.name, f.src)
		if err != nil {
			return err
		}
		*f.dst = n
	}
	return nil
}
