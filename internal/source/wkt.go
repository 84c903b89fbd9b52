package source

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb/encoding/wkt"
)

// ParseWKT reads one geometry per line; a text without line breaks inside
// its geometry is the common case of a single pasted geometry. Blank lines
// and lines starting with # are ignored.
func ParseWKT(text string) (*Dataset, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil, errors.New("empty wkt")
	}

	c := newCollector()
	sc := bufio.NewScanner(strings.NewReader(s))
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		g, err := wkt.Unmarshal(line)
		if err != nil {
			// geometries spread over several lines
			if n == 1 {
				g, err = wkt.Unmarshal(strings.Join(strings.Fields(s), " "))
				if err == nil {
					c.add(g)
					break
				}
			}
			return nil, fmt.Errorf("wkt line %d: %w", n, err)
		}
		c.add(g)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if c.count() == 0 {
		return nil, errors.New("wkt: no geometries found")
	}
	return newDataset("wkt", "wkt", c)
}
