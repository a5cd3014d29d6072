package taskrun

import (
	"bytes"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v2"
)

// ScriptMeta is the metadata block of a script task:
//
//	#!/bin/sh
//	# task
//	# description: Reset the local database
//	# needs: [build]
type ScriptMeta struct {
	Description string   `yaml:"description"`
	Needs       []string `yaml:"needs"`
	Group       string   `yaml:"group"`
}

type MetadataParser interface {
	Parse(content []byte) (ScriptMeta, error)
}

var (
	headerStartPattern = regexp.MustCompile(`^#+\s*task\s*$`)
	commentPattern     = regexp.MustCompile(`^#+`)
	commentPrefix      = regexp.MustCompile(`^#+\s?`)
)

type yamlMetadataParser struct{}

func NewYAMLMetadataParser() MetadataParser {
	return yamlMetadataParser{}
}

// Parse reads the "# task" comment block at the top of a script. Only the
// shebang, blank lines and other comments may precede it. Scripts without
// a block get empty metadata.
func (yamlMetadataParser) Parse(content []byte) (ScriptMeta, error) {
	lines := bytes.Split(content, []byte("\n"))

	start := -1
	for i, line := range lines {
		line = bytes.TrimRight(line, "\r")
		if headerStartPattern.Match(line) {
			start = i
			break
		}
		if len(bytes.TrimSpace(line)) > 0 && !commentPattern.Match(line) {
			break
		}
	}

	if start < 0 {
		return ScriptMeta{}, nil
	}

	var block [][]byte
	for _, line := range lines[start+1:] {
		line = bytes.TrimRight(line, "\r")
		if !commentPattern.Match(line) {
			break
		}
		block = append(block, commentPrefix.ReplaceAll(line, nil))
	}

	var meta ScriptMeta
	if err := yaml.Unmarshal(bytes.Join(block, []byte("\n")), &meta); err != nil {
		return ScriptMeta{}, fmt.Errorf("invalid task header: %w", err)
	}
	return meta, nil
}
