package validation

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
)

// Options are the parsed posting flags. Sage posts without bumping, NoNoko
// suppresses the return-to-thread redirect; "nonokosage" sets both.
type Options struct {
	Sage     bool
	NoNoko   bool
	Tripcode string
}

// Bumps reports whether a reply carrying these options reorders its thread.
func (o Options) Bumps() bool {
	return !o.Sage && !o.NoNoko
}

// ParseOptions tokenizes the raw options field on whitespace. Recognized
// tokens: sage, nonoko, nonokosage, name#password (tripcode) and
// name##password (secure tripcode). Anything else is an error.
func ParseOptions(raw, tripSecret string) (Options, []string) {
	var opts Options
	var messages []string

	for _, token := range strings.Fields(raw) {
		switch token {
		case "sage":
			opts.Sage = true
		case "nonoko":
			opts.NoNoko = true
		case "nonokosage":
			opts.Sage = true
			opts.NoNoko = true
		default:
			if name, pass, secure, ok := splitTripToken(token); ok {
				opts.Tripcode = Tripcode(name, pass, secure, tripSecret)
			} else {
				messages = append(messages, fmt.Sprintf("unrecognized option %q", token))
			}
		}
	}

	return opts, messages
}

func splitTripToken(token string) (name, pass string, secure, ok bool) {
	idx := strings.Index(token, "#")
	if idx < 0 {
		return "", "", false, false
	}
	name = token[:idx]
	rest := token[idx+1:]
	if strings.HasPrefix(rest, "#") {
		return name, rest[1:], true, rest[1:] != ""
	}
	return name, rest, false, rest != ""
}

// Tripcode derives the display token from a name#password fragment. The
// secure variant mixes in the server secret so it can't be brute-forced
// offline from the rendered token alone.
func Tripcode(name, password string, secure bool, secret string) string {
	var sum [32]byte
	prefix := "!"
	if secure {
		sum = sha256.Sum256([]byte(password + secret))
		prefix = "!!"
	} else {
		sum = sha256.Sum256([]byte(password))
	}
	code := base64.RawStdEncoding.EncodeToString(sum[:])[:10]
	return name + prefix + code
}
