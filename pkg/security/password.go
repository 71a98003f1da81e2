package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/qkart/pkg/config"
	"golang.org/x/crypto/argon2"
)

// ErrInvalidHash signals a malformed Argon2id hash string.
var ErrInvalidHash = errors.New("invalid argon2id hash")

var b64 = base64.RawStdEncoding

// ArgonParams are the cost parameters encoded into every stored hash.
type ArgonParams struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

// ParamsFromConfig clamps the configured costs into a range that stays usable
// on small dynos and in tests.
func ParamsFromConfig(cfg config.PasswordConfig) ArgonParams {
	return ArgonParams{
		Memory:      clamp(cfg.ArgonMemoryKB, 8, 512*1024),
		Time:        clamp(cfg.ArgonTime, 1, 10),
		Parallelism: uint8(clamp(cfg.ArgonParallelism, 1, 255)),
		SaltLen:     clamp(cfg.ArgonSaltLen, 8, 64),
		KeyLen:      clamp(cfg.ArgonKeyLen, 16, 64),
	}
}

// encodedHash is the PHC form: $argon2id$v=19$m=..,t=..,p=..$salt$key
type encodedHash struct {
	params ArgonParams
	salt   []byte
	key    []byte
}

func (h encodedHash) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Time, h.params.Parallelism,
		b64.EncodeToString(h.salt), b64.EncodeToString(h.key))
}

func parseHash(encoded string) (encodedHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return encodedHash{}, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return encodedHash{}, ErrInvalidHash
	}

	var out encodedHash
	p := &out.params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Parallelism); err != nil {
		return encodedHash{}, ErrInvalidHash
	}
	if p.Memory == 0 || p.Time == 0 || p.Parallelism == 0 {
		return encodedHash{}, ErrInvalidHash
	}

	var err error
	if out.salt, err = b64.DecodeString(parts[4]); err != nil || len(out.salt) == 0 {
		return encodedHash{}, ErrInvalidHash
	}
	if out.key, err = b64.DecodeString(parts[5]); err != nil || len(out.key) == 0 {
		return encodedHash{}, ErrInvalidHash
	}
	p.SaltLen = uint32(len(out.salt))
	p.KeyLen = uint32(len(out.key))
	return out, nil
}

// HashPassword returns a PHC-formatted Argon2id hash for password.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}

	h := encodedHash{params: ParamsFromConfig(cfg)}
	h.salt = make([]byte, h.params.SaltLen)
	if _, err := rand.Read(h.salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	h.key = derive(password, h.salt, h.params)
	return h.String(), nil
}

// VerifyPassword reports whether password matches encoded. A malformed hash is
// an error, a mismatch is not.
func VerifyPassword(password, encoded string) (bool, error) {
	h, err := parseHash(encoded)
	if err != nil {
		return false, err
	}
	computed := derive(password, h.salt, h.params)
	return subtle.ConstantTimeCompare(h.key, computed) == 1, nil
}

// NeedsRehash reports whether encoded was produced with costs other than the
// ones currently configured. Unparseable hashes always need a rehash.
func NeedsRehash(encoded string, cfg config.PasswordConfig) bool {
	h, err := parseHash(encoded)
	if err != nil {
		return true
	}
	return h.params != ParamsFromConfig(cfg)
}

func derive(password string, salt []byte, p ArgonParams) []byte {
	return argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
}

func clamp(value, min, max int) uint32 {
	if value < min {
		value = min
	}
	if value > max {
		value = max
	}
	return uint32(value)
}
