package lyrics

import (
	"fmt"
	"os"
	"strings"

	"kantori/internal/services"
)

var requiredSections = []string{"[Script Info]", "[V4+ Styles]", "[Events]"}

// ValidateContent checks that ASS content carries the required sections and
// at least one dialogue line.
func ValidateContent(content string) error {
	var issues []string
	for _, section := range requiredSections {
		if !strings.Contains(content, section) {
			issues = append(issues, fmt.Sprintf("missing section %s", section))
		}
	}
	if !strings.Contains(content, "Dialogue:") {
		issues = append(issues, "no dialogue lines")
	}
	if len(issues) > 0 {
		return services.Wrap(services.ErrValidation, stageName, "validate captions",
			strings.Join(issues, "; "), nil)
	}
	return nil
}

// Validate reads the ASS file at path and checks its structure.
func Validate(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return services.Wrap(services.ErrValidation, stageName, "validate captions",
			fmt.Sprintf("read %s", path), err)
	}
	return ValidateContent(string(data))
}
