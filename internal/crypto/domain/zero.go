package domain

// zero overwrites the given byte slice with zeros. Used to clear sensitive
// key material from memory once it has been copied or wrapped.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Zero overwrites the given byte slice with zeros.
func Zero(b []byte) {
	zero(b)
}
