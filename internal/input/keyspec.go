// Package input maps key sequences, as written in the configuration, to
// actions.
package input

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/gdamore/tcell/v2"
)

// Keyspec is a key sequence specification as written in the configuration,
// e.g. "<space>qw" meaning the SPACE key, then the Q key, then the W key.
type Keyspec = string

// ConfigKeyspecToKeys converts full key sequence specification strings to the
// appropriate sequence of Keys (or an error, if invalid).
func ConfigKeyspecToKeys(spec Keyspec) ([]Key, error) {
	result := make([]Key, 0)

	var special []rune
	inSpecial := false
	for pos, r := range spec {
		switch {
		case r == '<':
			if inSpecial {
				return nil, fmt.Errorf("illegal second opening special context ('<') before previous is closed (pos %d)", pos)
			}
			inSpecial = true
			special = special[:0]

		case r == '>':
			if !inSpecial {
				return nil, fmt.Errorf("illegal closing of special context ('>') while none open (pos %d)", pos)
			}
			inSpecial = false
			key, err := KeyIdentifierToKey(string(special))
			if err != nil {
				return nil, fmt.Errorf("error mapping identifier '<%s>' to key (%w)", string(special), err)
			}
			result = append(result, key)

		case inSpecial:
			if !unicode.IsLetter(r) && r != '-' {
				return nil, fmt.Errorf("illegal character '%c' in special context (pos %d)", r, pos)
			}
			special = append(special, r)

		default:
			result = append(result, Key{Key: tcell.KeyRune, Ch: r})
		}
	}
	if inSpecial {
		return nil, fmt.Errorf("unclosed special context in '%s'", spec)
	}

	return result, nil
}

var namedKeys = map[string]Key{
	"space": {Key: tcell.KeyRune, Ch: ' '},
	"cr":    {Key: tcell.KeyEnter},
	"esc":   {Key: tcell.KeyESC},
	"del":   {Key: tcell.KeyDelete},
	"bs":    {Key: tcell.KeyBackspace2},
	"left":  {Key: tcell.KeyLeft},
	"right": {Key: tcell.KeyRight},
	"up":    {Key: tcell.KeyUp},
	"down":  {Key: tcell.KeyDown},
	"tab":   {Key: tcell.KeyTab},

	"c-space": {Key: tcell.KeyCtrlSpace},
	"c-bs":    {Key: tcell.KeyBackspace},
}

// identifiers is the reverse of namedKeys. Some control keys share their code
// with a named key (e.g. <c-m> and <cr>); those get the named identifier.
var identifiers = map[Key]string{}

func init() {
	for c := 'a'; c <= 'z'; c++ {
		identifier := "c-" + string(c)
		key := Key{Key: tcell.KeyCtrlA + tcell.Key(c-'a')}
		namedKeys[identifier] = key
		identifiers[key] = identifier
	}
	for identifier, key := range namedKeys {
		if !strings.HasPrefix(identifier, "c-") || len(identifier) > 3 {
			identifiers[key] = identifier
		}
	}
}

// KeyIdentifierToKey converts the given special identifier (without angle
// brackets) to the appropriate key (or an error, if invalid).
func KeyIdentifierToKey(identifier string) (Key, error) {
	key, ok := namedKeys[strings.ToLower(identifier)]
	if !ok {
		return Key{}, fmt.Errorf("no mapping present for identifier '%s'", identifier)
	}
	return key, nil
}

// ToConfigIdentifierString converts the given key to its configuration
// identifier.
func ToConfigIdentifierString(k Key) string {
	if identifier, ok := identifiers[k]; ok {
		return "<" + identifier + ">"
	}
	if k.Key == tcell.KeyRune {
		return string(k.Ch)
	}
	return fmt.Sprintf("<%s>", strings.ToLower(tcell.KeyNames[k.Key]))
}
