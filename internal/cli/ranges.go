package cli

import (
	"strconv"
	"strings"

	"github.com/richinsley/cmfy/client"
)

const maxSpan = 1 << 16

// indexSet is a set of prompt indices.
type indexSet map[uint64]struct{}

func (s indexSet) contains(i uint64) bool {
	_, ok := s[i]
	return ok
}

// parseRange parses index selections such as "1,2,3", "4-5" or "1,3,4-6".
func parseRange(spec string) (indexSet, error) {
	set := indexSet{}
	if strings.TrimSpace(spec) == "" {
		return nil, client.NewInputError(spec, "empty range")
	}

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isSpan := strings.Cut(part, "-")

		from, err := strconv.ParseUint(strings.TrimSpace(lo), 10, 64)
		if err != nil {
			return nil, client.NewInputError(spec, "'"+part+"' is not an index or a span")
		}
		to := from
		if isSpan {
			to, err = strconv.ParseUint(strings.TrimSpace(hi), 10, 64)
			if err != nil {
				return nil, client.NewInputError(spec, "'"+part+"' is not an index or a span")
			}
			if to < from {
				return nil, client.NewInputError(spec, "span '"+part+"' is reversed")
			}
			if to-from >= maxSpan {
				return nil, client.NewInputError(spec, "span '"+part+"' is too large")
			}
		}
		for i := from; ; i++ {
			set[i] = struct{}{}
			if i == to {
				break
			}
		}
	}
	return set, nil
}

// latentSize is the argument of --size.
type latentSize struct {
	width, height uint
	batch         uint8
}

// parseSize parses "WxH" or "WxHxB".
func parseSize(spec string) (latentSize, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(spec)), "x")
	if len(parts) != 2 && len(parts) != 3 {
		return latentSize{}, client.NewInputError(spec, "expected WxH or WxHxB")
	}

	var size latentSize
	w, err := strconv.ParseUint(parts[0], 10, 0)
	if err != nil || w == 0 {
		return latentSize{}, client.NewInputError(spec, "width must be a positive integer")
	}
	h, err := strconv.ParseUint(parts[1], 10, 0)
	if err != nil || h == 0 {
		return latentSize{}, client.NewInputError(spec, "height must be a positive integer")
	}
	size.width, size.height = uint(w), uint(h)

	if len(parts) == 3 {
		b, err := strconv.ParseUint(parts[2], 10, 8)
		if err != nil || b == 0 {
			return latentSize{}, client.NewInputError(spec, "batch size must be between 1 and 255")
		}
		size.batch = uint8(b)
	}
	return size, nil
}
