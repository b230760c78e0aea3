package driver

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// source lists the values to push: the contents of the configured file, or 0..count-1.
func source(config *Config) ([]float64, error) {
	if config.Filename == "" {
		if config.Count < 0 {
			return nil, fmt.Errorf("run.count must not be negative, got %d", config.Count)
		}
		values := make([]float64, config.Count)
		for i := range values {
			values[i] = float64(i)
		}
		return values, nil
	}

	file, err := os.Open(config.Filename)
	if err != nil {
		return nil, fmt.Errorf("opening values file: %w", err)
	}
	defer file.Close()

	return readValues(file)
}

// readValues parses one number per line. Blank lines and lines starting with # are skipped.
func readValues(r io.Reader) ([]float64, error) {
	scanner := bufio.NewScanner(r)
	var values []float64
	line := 0

	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if math.IsNaN(v) {
			return nil, fmt.Errorf("line %d: NaN is reserved for poisoned slots", line)
		}
		values = append(values, v)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning values: %w", err)
	}
	return values, nil
}
