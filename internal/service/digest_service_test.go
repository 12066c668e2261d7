package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDigestText(t *testing.T) {
	now := time.Date(2024, time.June, 11, 21, 0, 0, 0, time.UTC)

	text := digestText("jasmine", "Summer 2024", Pace{Today: 3, Average: 1.5}, now)
	assert.Contains(t, text, "11.06.2024")
	assert.Contains(t, text, "jasmine")
	assert.Contains(t, text, "Summer 2024")
	assert.Contains(t, text, "Today: <b>3</b>")
	assert.Contains(t, text, "1.50")
	assert.Contains(t, text, "On pace")

	behind := digestText("jasmine", "Summer 2024", Pace{Today: 0, Average: 2.25}, now)
	assert.Contains(t, behind, "Behind the usual pace")

	empty := digestText("jasmine", "Summer 2024", Pace{}, now)
	assert.Contains(t, empty, "No applications on record yet")
}
