package config

import (
	"strconv"
	"strings"
)

// Render substitutes the {course}, {secret}, {used} and {quota} placeholders.
func (c *Config) Render(template string, used int) string {
	return strings.NewReplacer(
		"{course}", c.Course.Name,
		"{secret}", c.Course.UnlockSecret,
		"{used}", strconv.Itoa(used),
		"{quota}", strconv.Itoa(c.Course.TotalQuota),
	).Replace(template)
}
