package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// envReader looks up variables with defaults and collects parse failures.
type envReader struct {
	problems []string
}

func (e *envReader) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func parse[T any](e *envReader, key string, def T, fn func(string) (T, error)) T {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	v, err := fn(raw)
	if err != nil {
		e.problems = append(e.problems, fmt.Sprintf("%s: invalid value %q", key, raw))
		return def
	}
	return v
}

func (e *envReader) integer(key string, def int) int {
	return parse(e, key, def, strconv.Atoi)
}

func (e *envReader) boolean(key string, def bool) bool {
	return parse(e, key, def, strconv.ParseBool)
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	return parse(e, key, def, time.ParseDuration)
}

// list splits a comma separated value, dropping blanks.
func (e *envReader) list(key string, def []string) []string {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
