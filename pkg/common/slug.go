package common

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// cyrillicToLatin maps lower-case Cyrillic letters to their Latin spelling.
// Russian letters follow the storefront's historical table; Kyrgyz, Kazakh and
// Ukrainian extras are folded onto the nearest Latin letter.
var cyrillicToLatin = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "yo",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "shch", 'ъ': "",
	'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
	// kg / kz / ua
	'ң': "n", 'ө': "o", 'ү': "u", 'ұ': "u", 'қ': "k", 'ғ': "g", 'һ': "h",
	'ә': "a", 'і': "i", 'ї': "yi", 'є': "ye", 'ґ': "g",
}

// Slugify converts text into a lower-case, hyphenated, URL-safe slug.
// Empty results fall back to "product-<unix seconds>".
func Slugify(text string) string {
	return SlugifyWithFallback(text, "product")
}

// SlugifyWithFallback is Slugify with a custom placeholder prefix.
func SlugifyWithFallback(text, prefix string) string {
	lowered := cases.Lower(language.Und).String(text)

	var translit strings.Builder
	for _, r := range lowered {
		if lat, ok := cyrillicToLatin[r]; ok {
			translit.WriteString(lat)
			continue
		}
		translit.WriteRune(r)
	}

	// é -> e, ñ -> n
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(stripMarks, translit.String())
	if err != nil {
		plain = translit.String()
	}

	var sb strings.Builder
	pendingHyphen := false
	for _, r := range plain {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			pendingHyphen = false
			sb.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	if sb.Len() == 0 {
		return fmt.Sprintf("%s-%d", prefix, time.Now().Unix())
	}
	return sb.String()
}
