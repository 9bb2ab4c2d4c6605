package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
)

// HashData 计算给定数据的 SHA256 哈希
func HashData(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// HashFile returns the SHA256 of a file's contents.
func HashFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return HashData(b), nil
}

// IntsToFloats widens integer readings for the numeric libraries.
func IntsToFloats(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
