package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-enry/go-enry/v2"
)

// LanguageJava is the enry name of Java
const LanguageJava = "Java"

// ErrNotJava is returned for input files that are not Java source
var ErrNotJava = errors.New("not a Java source file")

// DetectLanguage returns the enry language of a file, "Binary" for binary
// content and "" when nothing matches
func DetectLanguage(path string, data []byte) string {
	if enry.IsBinary(data) {
		return "Binary"
	}

	name := filepath.Base(path)
	if language := enry.GetLanguage(name, data); language != "" {
		return language
	}

	language, _ := enry.GetLanguageByExtension(name)
	return language
}

// ReadJavaSource reads an input variant and rejects anything that is not Java
func ReadJavaSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	if language := DetectLanguage(path, data); language != LanguageJava {
		return "", fmt.Errorf("%w: %s detected as %q", ErrNotJava, path, language)
	}

	return string(data), nil
}
