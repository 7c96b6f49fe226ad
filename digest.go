package main

import "fmt"

// weakDigest reproduces the original server's misleadingly-named
// sha256_hash: a djb2 running hash over the raw input bytes, expanded into
// four 16-hex-digit blocks by XORing the hash with three fixed masks. This is
// not cryptographic — it is kept bitwise-compatible so that accounts files
// written by the original server remain valid (SPEC_FULL.md §4.2, §9 Design
// Notes #4). Never call this a hash of any cryptographic strength.
func weakDigest(password string) string {
	var hash uint64 = 5381
	for i := 0; i < len(password); i++ {
		hash = hash*33 + uint64(password[i])
	}
	return fmt.Sprintf("%016x%016x%016x%016x",
		hash, hash^0xDEADBEEF, hash^0xCAFEBABE, hash^0x12345678)
}
