package valueobject

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/Derecoder4/Freelance-Fi/internal/pkg/apperror"
)

const addressHexLength = 40

// Address - адрес кошелька в checksum-форме EIP-55.
type Address string

// ParseAddress разбирает строку вида 0x + 40 hex-символов.
// Тело в одном регистре принимается как есть, смешанный регистр обязан совпадать с контрольной суммой.
func ParseAddress(raw string) (Address, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) != addressHexLength+2 || !(strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X")) {
		return "", apperror.New(apperror.ErrCodeInvalidInput, "адрес должен иметь формат 0x и 40 hex-символов")
	}

	body := raw[2:]
	if _, err := hex.DecodeString(body); err != nil {
		return "", apperror.New(apperror.ErrCodeInvalidInput, "адрес содержит недопустимые символы")
	}

	lower := strings.ToLower(body)
	if strings.Trim(lower, "0") == "" {
		return "", apperror.New(apperror.ErrCodeInvalidInput, "нулевой адрес недопустим")
	}

	checksummed := checksum(lower)
	mixed := body != lower && body != strings.ToUpper(body)
	if mixed && "0x"+body != checksummed {
		return "", apperror.New(apperror.ErrCodeInvalidInput, "неверная контрольная сумма адреса")
	}

	return Address(checksummed), nil
}

// MustParseAddress используется для констант и тестов.
func MustParseAddress(raw string) Address {
	addr, err := ParseAddress(raw)
	if err != nil {
		panic(err)
	}
	return addr
}

func (a Address) String() string {
	return string(a)
}

func (a Address) IsZero() bool {
	return a == ""
}

// Equal сравнивает адреса без учёта регистра.
func (a Address) Equal(other Address) bool {
	return strings.EqualFold(string(a), string(other))
}

// checksum применяет EIP-55 к hex-телу в нижнем регистре.
func checksum(lowerHex string) string {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write([]byte(lowerHex))
	digest := hasher.Sum(nil)

	out := make([]byte, 0, len(lowerHex)+2)
	out = append(out, '0', 'x')
	for i := 0; i < len(lowerHex); i++ {
		c := lowerHex[i]
		if c >= 'a' && c <= 'f' {
			nibble := digest[i/2]
			if i%2 == 0 {
				nibble >>= 4
			} else {
				nibble &= 0x0f
			}
			if nibble >= 8 {
				c -= 'a' - 'A'
			}
		}
		out = append(out, c)
	}
	return string(out)
}
