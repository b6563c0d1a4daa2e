package extractor

import "strings"

// arcanLanguages are the language names the tool accepts as-is.
var arcanLanguages = map[string]bool{
	"JAVA":   true,
	"CPP":    true,
	"C":      true,
	"ASML":   true,
	"CSHARP": true,
	"PYTHON": true,
}

// NormalizeLanguage maps a repository's language name into the extraction
// tool's vocabulary. Unrecognized languages pass through uppercased.
func NormalizeLanguage(language string) string {
	upper := strings.ToUpper(language)
	if arcanLanguages[upper] {
		return upper
	}
	switch upper {
	case "C++":
		return "CPP"
	case "C#":
		return "CSHARP"
	}
	return upper
}
