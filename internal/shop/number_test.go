package shop_test

import (
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/verkstad/shop-orders/internal/shop"
)

func TestMonthKey(t *testing.T) {
	assert.Equal(t, "2608", shop.MonthKey(time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2601", shop.MonthKey(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "3012", shop.MonthKey(time.Date(2030, time.December, 24, 0, 0, 0, 0, time.UTC)))
}

func TestFormatNumber(t *testing.T) {
	format := regexp.MustCompile(`^\d{4}\.\d{3}$`)

	assert.Equal(t, "2608.001", shop.FormatNumber("2608", 1))
	assert.Equal(t, "2608.012", shop.FormatNumber("2608", 12))
	assert.Equal(t, "2608.123", shop.FormatNumber("2608", 123))
	assert.Regexp(t, format, shop.FormatNumber("2608", 7))
}

func TestFormatNumberMonotonicWithinMonth(t *testing.T) {
	prev := shop.FormatNumber("2608", 1)
	for seq := 2; seq <= 150; seq++ {
		cur := shop.FormatNumber("2608", seq)
		assert.Greater(t, cur, prev, fmt.Sprintf("seq %d should sort after its predecessor", seq))
		prev = cur
	}
}
