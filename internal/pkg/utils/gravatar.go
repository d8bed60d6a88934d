package utils

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

const defaultAvatarSize = 200

// GetGravatarURL builds the avatar image URL for an email address, used for
// share grantees who may have no BoxBin account yet. Addresses without a
// Gravatar profile resolve to the neutral "mystery person" image.
func GetGravatarURL(email string, size int) string {
	if size <= 0 {
		size = defaultAvatarSize
	}

	// Gravatar hashes the trimmed, lowercased address.
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))

	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?s=%d&d=mp", hex.EncodeToString(sum[:]), size)
}
