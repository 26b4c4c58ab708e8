package guard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

type Rule struct {
	// Probe requests let through while half-open
	MaxRequests uint32
	// Closed-state counting window
	Interval time.Duration
	// How long the breaker stays open before probing
	Timeout time.Duration

	TripConsecutiveFailures uint32
	TripFailureRate         float64 // 0..1
	TripMinRequests         uint32
}

// Manager hands out one circuit breaker per gateway method.
type Manager struct {
	mu sync.RWMutex
	m  map[string]*gobreaker.CircuitBreaker[struct{}]

	defaultRule Rule
	rules       map[string]Rule
	onChange    func(method string, from, to gobreaker.State)
}

func NewManager(defaultRule Rule, perMethod map[string]Rule) *Manager {
	if defaultRule.MaxRequests == 0 {
		defaultRule.MaxRequests = 1
	}
	if defaultRule.Timeout <= 0 {
		defaultRule.Timeout = 30 * time.Second
	}
	if defaultRule.Interval <= 0 {
		defaultRule.Interval = time.Minute
	}
	if defaultRule.TripConsecutiveFailures == 0 && defaultRule.TripFailureRate == 0 {
		defaultRule.TripConsecutiveFailures = 5
	}
	if defaultRule.TripMinRequests == 0 {
		defaultRule.TripMinRequests = 20
	}

	return &Manager{
		m:           make(map[string]*gobreaker.CircuitBreaker[struct{}], 16),
		defaultRule: defaultRule,
		rules:       perMethod,
	}
}

// OnStateChange registers a hook called when any breaker changes state.
// Must be set before the first Get.
func (m *Manager) OnStateChange(fn func(method string, from, to gobreaker.State)) {
	m.onChange = fn
}

func (m *Manager) Get(method string) *gobreaker.CircuitBreaker[struct{}] {
	m.mu.RLock()
	cb := m.m[method]
	m.mu.RUnlock()
	if cb != nil {
		return cb
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if cb = m.m[method]; cb != nil {
		return cb
	}

	rule, ok := m.rules[method]
	if !ok {
		rule = m.defaultRule
	}
	st := gobreaker.Settings{
		Name:        method,
		MaxRequests: rule.MaxRequests,
		Interval:    rule.Interval,
		Timeout:     rule.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if rule.TripConsecutiveFailures > 0 && c.ConsecutiveFailures >= rule.TripConsecutiveFailures {
				return true
			}
			if rule.TripFailureRate > 0 && c.Requests >= rule.TripMinRequests {
				return float64(c.TotalFailures)/float64(c.Requests) >= rule.TripFailureRate
			}
			return false
		},
		IsSuccessful: isSuccessfulForBreaker,
	}
	if m.onChange != nil {
		hook := m.onChange
		st.OnStateChange = func(name string, from, to gobreaker.State) { hook(name, from, to) }
	}

	cb = gobreaker.NewCircuitBreaker[struct{}](st)
	m.m[method] = cb
	return cb
}

// A caller giving up says nothing about the broker's health.
func isSuccessfulForBreaker(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}
