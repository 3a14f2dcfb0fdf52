package kafka

import "encoding/json"

// MustMarshal is for values this process built itself; a marshal failure
// there is a programming error, not an input error.
func MustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
