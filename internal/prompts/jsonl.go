package prompts

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// scanBufSize allows prompt lines up to 1MB.
const scanBufSize = 1024 * 1024

// LoadJSONL reads prompts from a newline-delimited JSON file where each record
// carries a string "prompt" field. Malformed records are skipped with a
// warning; a file yielding zero valid prompts is an error.
func LoadJSONL(path string, log logrus.FieldLogger) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open prompt dataset: %w", err)
	}
	defer file.Close()

	var loaded []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), scanBufSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !gjson.Valid(line) {
			log.WithField("line", lineNo).Warn("skipping non-JSON line in prompt dataset")
			continue
		}
		prompt := gjson.Get(line, "prompt")
		if prompt.Type != gjson.String {
			log.WithField("line", lineNo).Warn("skipping record without a string \"prompt\" field")
			continue
		}
		loaded = append(loaded, prompt.String())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read prompt dataset: %w", err)
	}

	if len(loaded) == 0 {
		return nil, fmt.Errorf("no valid prompts found in dataset file %s", path)
	}
	log.WithField("count", len(loaded)).Info("loaded prompts from dataset")
	return loaded, nil
}
