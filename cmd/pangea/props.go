package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/pangea/pkg/domain"
)

// parseProps turns key=value pairs into props. Values that parse as
// numbers or booleans keep that type.
func parseProps(pairs []string) (domain.Props, error) {
	props := domain.Props{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid prop %q, expected key=value", pair)
		}
		props[key] = scalar(value)
	}
	return props, nil
}

func scalar(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return int(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}
