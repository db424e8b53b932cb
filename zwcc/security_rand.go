package zwcc

import "crypto/rand"

func defaultRandRead(b []byte) (int, error) {
	return rand.Read(b)
}
