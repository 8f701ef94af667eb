package pathcode

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// PathCode is the compact representative of a path: the code and the number
// of lifts applied to produce it.
type PathCode struct {
	Code  *big.Int
	Depth int
	// Capped is set when the lift guard stopped lifting before the path
	// collapsed to a single value or the depth limit was reached.
	Capped bool
}

// String renders the code as "code@depth".
func (pc PathCode) String() string {
	return fmt.Sprintf("%s@%d", pc.Code, pc.Depth)
}

// Equal reports whether both codes and depths match.
func (pc PathCode) Equal(other PathCode) bool {
	if pc.Code == nil || other.Code == nil {
		return pc.Code == other.Code && pc.Depth == other.Depth
	}
	return pc.Depth == other.Depth && pc.Code.Cmp(other.Code) == 0
}

type pathCodeJSON struct {
	Code   string `json:"code"`
	Depth  int    `json:"depth"`
	Capped bool   `json:"capped,omitempty"`
}

// MarshalJSON encodes the code as a decimal string: {"code": "13", "depth": 1}.
func (pc PathCode) MarshalJSON() ([]byte, error) {
	if pc.Code == nil {
		return nil, fmt.Errorf("pathcode: marshal nil code")
	}
	return json.Marshal(pathCodeJSON{
		Code:   pc.Code.String(),
		Depth:  pc.Depth,
		Capped: pc.Capped,
	})
}

// UnmarshalJSON parses the decimal-string form.
func (pc *PathCode) UnmarshalJSON(data []byte) error {
	var raw pathCodeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	code, ok := new(big.Int).SetString(raw.Code, 10)
	if !ok {
		return fmt.Errorf("pathcode: invalid decimal code %q", raw.Code)
	}
	if raw.Depth < 0 {
		return fmt.Errorf("pathcode: negative depth %d", raw.Depth)
	}
	*pc = PathCode{Code: code, Depth: raw.Depth, Capped: raw.Capped}
	return nil
}

// Product multiplies ps. The empty product is 1.
func Product(ps []*big.Int) *big.Int {
	res := big.NewInt(1)
	for _, p := range ps {
		res.Mul(res, p)
	}
	return res
}
