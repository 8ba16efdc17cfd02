package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"epk-api-go/circuitbreaker"
	"epk-api-go/contact"
	"epk-api-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// Result is the outcome of one delivery attempt
type Result struct {
	Notifier string
	Err      error
}

// DispatcherConfig holds dispatcher configuration
type DispatcherConfig struct {
	Notifiers        []Notifier
	BreakerThreshold int
	BreakerCooldown  time.Duration
	Timeout          time.Duration // per delivery, default 15s
	// OnResult is called after every delivery attempt, including ones an
	// open breaker skipped
	OnResult func(Result)
}

type target struct {
	notifier Notifier
	breaker  *circuitbreaker.CircuitBreaker
}

// Dispatcher fans a message out to every notifier, each behind its own
// circuit breaker
type Dispatcher struct {
	targets  []target
	timeout  time.Duration
	onResult func(Result)
	wg       sync.WaitGroup
}

// NewDispatcher creates a dispatcher for the configured notifiers
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	d := &Dispatcher{timeout: timeout, onResult: cfg.OnResult}
	for _, n := range cfg.Notifiers {
		d.targets = append(d.targets, target{
			notifier: n,
			breaker: circuitbreaker.New(circuitbreaker.Config{
				Name:      n.Name(),
				Threshold: cfg.BreakerThreshold,
				Cooldown:  cfg.BreakerCooldown,
				OnStateChange: func(name string, from, to circuitbreaker.State) {
					log.Warnf("%s Notifier %s breaker %s -> %s", logcolors.LogNotifier, name, from, to)
				},
			}),
		})
	}
	return d
}

// Len returns the number of configured notifiers
func (d *Dispatcher) Len() int {
	return len(d.targets)
}

// States returns each notifier's breaker state keyed by notifier name
func (d *Dispatcher) States() map[string]string {
	states := make(map[string]string, len(d.targets))
	for _, t := range d.targets {
		states[t.notifier.Name()] = t.breaker.State().String()
	}
	return states
}

// Dispatch delivers to every notifier concurrently and waits for all of them.
// The returned error joins every failed delivery.
func (d *Dispatcher) Dispatch(ctx context.Context, subject, message string) error {
	results := make([]Result, len(d.targets))

	var wg sync.WaitGroup
	for i, t := range d.targets {
		wg.Add(1)
		go func(i int, t target) {
			defer wg.Done()
			sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
			defer cancel()

			err := t.breaker.Execute(func() error {
				return t.notifier.Send(sendCtx, subject, message)
			})
			results[i] = Result{Notifier: t.notifier.Name(), Err: err}
		}(i, t)
	}
	wg.Wait()

	var errs []error
	for _, r := range results {
		if d.onResult != nil {
			d.onResult(r)
		}
		if r.Err != nil {
			if errors.Is(r.Err, circuitbreaker.ErrCircuitOpen) {
				log.Debugf("%s Skipped %s: %v", logcolors.LogNotifier, r.Notifier, r.Err)
			} else {
				log.Warnf("%s Delivery via %s failed: %v", logcolors.LogNotifier, r.Notifier, r.Err)
			}
			errs = append(errs, fmt.Errorf("%s: %w", r.Notifier, r.Err))
		}
	}
	return errors.Join(errs...)
}

// NotifyContact delivers a contact message in the background. Wait blocks
// until every background delivery has finished.
func (d *Dispatcher) NotifyContact(msg contact.Message) {
	if len(d.targets) == 0 {
		return
	}
	subject, body := FormatContact(msg)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.Dispatch(context.Background(), subject, body)
	}()
}

// Wait blocks until pending background deliveries finish
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// FormatContact builds the notification subject and body for a message
func FormatContact(msg contact.Message) (subject, body string) {
	subject = fmt.Sprintf("New message from %s", msg.Name)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\n", msg.Name, msg.Email)
	fmt.Fprintf(&b, "Received: %s\n\n", msg.CreatedAt.Format(time.RFC1123))
	b.WriteString(msg.Message)
	return subject, b.String()
}
