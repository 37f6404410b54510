package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"chat-relay/contract"
)

// Argon2 parameters based on OWASP/CNIL recommendations
const (
	Memory      = 64 * 1024 // 64 MB
	Iterations  = 3
	Parallelism = 2
	SaltLength  = 16
	KeyLength   = 32
)

// DigestAlgorithm selects the password digest scheme. The stored form is
// self-describing (PHC string for argon2id, bare hex for sha256), so the
// algorithm choice only governs how NEW credentials are produced.
type DigestAlgorithm string

const (
	AlgorithmArgon2id DigestAlgorithm = "argon2id"
	AlgorithmSHA256   DigestAlgorithm = "sha256"
)

// NewDigester returns the Digester for the configured algorithm.
func NewDigester(alg DigestAlgorithm) (contract.Digester, error) {
	switch alg {
	case AlgorithmArgon2id:
		return Argon2Digester{}, nil
	case AlgorithmSHA256:
		return SHA256Digester{}, nil
	default:
		return nil, fmt.Errorf("unknown digest algorithm %q", alg)
	}
}

// DigesterFor returns the Digester able to verify a stored digest. Stored
// forms are self-describing: argon2id entries carry a PHC prefix, everything
// else is a legacy hex digest. A store migrated from the old server can hold
// both forms at once.
func DigesterFor(stored string) contract.Digester {
	if strings.HasPrefix(stored, "$argon2id$") {
		return Argon2Digester{}
	}
	return SHA256Digester{}
}

// Argon2Digester produces salted Argon2id digests in PHC string format.
type Argon2Digester struct{}

// Digest generates a secure Argon2id hash from a plain text password.
func (Argon2Digester) Digest(password string) (string, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, Iterations, Memory, Parallelism, KeyLength)

	// Format the result for storage (encoded in base64), carrying all the
	// metadata needed for verification.
	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s", argon2.Version, Memory, Iterations, Parallelism, b64Salt, b64Hash), nil
}

// Verify compares a plain text password with a stored PHC-encoded hash.
func (Argon2Digester) Verify(password, stored string) (bool, error) {
	parts := strings.Split(stored, "$")
	if len(parts) != 6 {
		return false, errors.New("invalid hash format")
	}

	var version, memory, iterations, parallelism int
	fmt.Sscanf(parts[2], "v=%d", &version)
	fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism)

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, err
	}
	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, err
	}

	comparisonHash := argon2.IDKey([]byte(password), salt, uint32(iterations), uint32(memory), uint8(parallelism), uint32(len(decodedHash)))

	// Constant time comparison to prevent timing attacks
	return subtle.ConstantTimeCompare(decodedHash, comparisonHash) == 1, nil
}

// SHA256Digester keeps compatibility with credential stores populated by the
// legacy server, which persisted unsalted hex-encoded SHA-256 digests.
type SHA256Digester struct{}

func (SHA256Digester) Digest(password string) (string, error) {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}

func (SHA256Digester) Verify(password, stored string) (bool, error) {
	sum := sha256.Sum256([]byte(password))
	computed := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(computed), []byte(stored)) == 1, nil
}
