package common

// WipeByteArray overwrites b with zeros. Passwords read from the terminal
// are wiped once they have been handed to the API client.
//
// A nil slice is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
