package taskrun

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/goliatone/go-errors"
)

// ReadVersion returns the first capture group of pattern found in the file
// at path, or the whole match when the pattern has no group.
func ReadVersion(path, pattern string) (string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryBadInput, "invalid version pattern").
			WithTextCode("VERSION_PATTERN_INVALID").
			WithMetadata(map[string]any{
				"pattern": pattern,
			})
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryBadInput, "failed to read version file").
			WithTextCode("VERSION_FILE_ERROR").
			WithMetadata(map[string]any{
				"file": path,
			})
	}

	match := re.FindSubmatch(content)
	if match == nil {
		return "", errors.New(fmt.Sprintf("version not found in %s", path), errors.CategoryBadInput).
			WithTextCode("VERSION_NOT_FOUND").
			WithMetadata(map[string]any{
				"file":    path,
				"pattern": pattern,
			})
	}

	version := match[0]
	if len(match) > 1 {
		version = match[1]
	}

	return strings.TrimSpace(string(version)), nil
}
