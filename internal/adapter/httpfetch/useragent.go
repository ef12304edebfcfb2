package httpfetch

import (
	"math/rand"
	"sync"
	"time"
)

var defaultUserAgents = []string{
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
}

// UserAgents hands out browser-identifying user agent strings.
type UserAgents struct {
	mu     sync.Mutex
	agents []string
	rnd    *rand.Rand
}

// NewUserAgents rotates over agents, or over a built-in desktop Chrome set when none are given.
func NewUserAgents(agents ...string) *UserAgents {
	if len(agents) == 0 {
		agents = defaultUserAgents
	}
	return &UserAgents{
		agents: agents,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Pick returns a random user agent.
func (u *UserAgents) Pick() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.agents[u.rnd.Intn(len(u.agents))]
}
