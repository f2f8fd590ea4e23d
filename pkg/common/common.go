package common

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

var (
	snowflakeNode *snowflake.Node
	snowflakeOnce sync.Once
)

func node() *snowflake.Node {
	snowflakeOnce.Do(func() {
		n, err := snowflake.NewNode(1)
		if err != nil {
			zap.L().Fatal("snowflake node init failed", zap.Error(err))
		}
		snowflakeNode = n
	})
	return snowflakeNode
}

// UUIDBase36 returns a unique id rendered in base36, suitable for file names
func UUIDBase36() string {
	return node().Generate().Base36()
}

// RandomHex returns n cryptographically random bytes as a hex string.
func RandomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// DigitsOnly drops every non-digit rune from s.
func DigitsOnly(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
