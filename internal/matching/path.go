package matching

import (
	"fmt"
	"regexp"
	"sync"
)

// DefaultPatternCacheSize is the number of compiled patterns kept before the
// cache is flushed.
const DefaultPatternCacheSize = 1024

// PatternError reports a route path that is not a valid regular expression.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid route path pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

type compiledPattern struct {
	re  *regexp.Regexp
	err error
}

// PatternCache caches compiled path patterns. It is safe for concurrent use.
type PatternCache struct {
	mu       sync.RWMutex
	patterns map[string]compiledPattern
	size     int
}

// NewPatternCache creates a cache holding up to size patterns.
// A size <= 0 uses DefaultPatternCacheSize.
func NewPatternCache(size int) *PatternCache {
	if size <= 0 {
		size = DefaultPatternCacheSize
	}
	return &PatternCache{
		patterns: make(map[string]compiledPattern),
		size:     size,
	}
}

// Compile returns the compiled form of pattern.
func (c *PatternCache) Compile(pattern string) (*regexp.Regexp, error) {
	c.mu.RLock()
	cp, ok := c.patterns[pattern]
	c.mu.RUnlock()
	if ok {
		return cp.re, cp.err
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		err = &PatternError{Pattern: pattern, Err: err}
	}

	c.mu.Lock()
	if len(c.patterns) >= c.size {
		c.patterns = make(map[string]compiledPattern)
	}
	c.patterns[pattern] = compiledPattern{re: re, err: err}
	c.mu.Unlock()

	return re, err
}

// Len returns the number of cached patterns.
func (c *PatternCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.patterns)
}

// MatchPathPattern reports whether pattern is found anywhere in path.
func (c *PatternCache) MatchPathPattern(pattern, path string) (bool, error) {
	re, err := c.Compile(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(path), nil
}
