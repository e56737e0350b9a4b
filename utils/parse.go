package utils

import (
	"strconv"
	"strings"
	"time"
)

func ParseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func ParseInt(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

func ParseDate(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}
