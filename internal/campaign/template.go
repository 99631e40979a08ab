package campaign

import (
	"strconv"
	"strings"
)

// RenderTemplate fills `{placeholder}` tokens with creator fields.
// Supported: {creator_name}, {handle}, {followers}, {niche}.
func RenderTemplate(template string, c *Creator) string {
	name := c.Name
	if name == "" {
		name = c.Handle
	}
	niche := ""
	if len(c.Niches) > 0 {
		niche = c.Niches[0]
	}

	r := strings.NewReplacer(
		"{creator_name}", name,
		"{handle}", c.Handle,
		"{followers}", strconv.FormatInt(c.Followers, 10),
		"{niche}", niche,
	)
	return r.Replace(template)
}
