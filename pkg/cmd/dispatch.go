package cmd

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// OutcomeKind classifies how a dispatch ended.
type OutcomeKind int

const (
	OutcomeInvoked OutcomeKind = iota
	OutcomeNoMatch
	OutcomePermissionDenied
	OutcomeOnCooldown
	OutcomeArgumentError
	OutcomeHandlerError
	// OutcomeCancelled means the event's context ended mid-dispatch. It is
	// never reported.
	OutcomeCancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeInvoked:
		return "invoked"
	case OutcomeNoMatch:
		return "no match"
	case OutcomePermissionDenied:
		return "permission denied"
	case OutcomeOnCooldown:
		return "on cooldown"
	case OutcomeArgumentError:
		return "argument error"
	case OutcomeHandlerError:
		return "handler error"
	case OutcomeCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Outcome is the result of one dispatch.
type Outcome struct {
	Kind    OutcomeKind
	Command *Descriptor
	Args    Args
	// Remaining is set for OutcomeOnCooldown.
	Remaining time.Duration
	// Err is a *PermissionError, *ArgumentError, the handler's error or a
	// *PanicError depending on Kind.
	Err error
}

// OK reports a successful invocation.
func (o Outcome) OK() bool { return o.Kind == OutcomeInvoked && o.Err == nil }

// Reportable reports whether the outcome goes to the Reporter.
func (o Outcome) Reportable() bool { return !o.OK() && o.Kind != OutcomeCancelled }

// ArgumentError returns the decode failure, if any.
func (o Outcome) ArgumentError() (*ArgumentError, bool) {
	var ae *ArgumentError
	if errors.As(o.Err, &ae) {
		return ae, true
	}
	return nil, false
}

func (o Outcome) String() string {
	name := "-"
	if o.Command != nil {
		name = o.Command.QualifiedName()
	}
	switch {
	case o.Kind == OutcomeOnCooldown:
		return fmt.Sprintf("%s: %s (%s left)", name, o.Kind, o.Remaining.Round(time.Millisecond))
	case o.Err != nil:
		return fmt.Sprintf("%s: %s: %v", name, o.Kind, o.Err)
	}
	return fmt.Sprintf("%s: %s", name, o.Kind)
}

// Reporter receives every reportable outcome exactly once. It classifies
// nothing itself; formatting user-facing messages is up to the adapter.
type Reporter interface {
	Report(ctx context.Context, inv *Invocation, o Outcome)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, inv *Invocation, o Outcome)

func (f ReporterFunc) Report(ctx context.Context, inv *Invocation, o Outcome) { f(ctx, inv, o) }

// PermissionResolver returns the permission bitmask the author holds where
// the invocation happened.
type PermissionResolver interface {
	Permissions(ctx context.Context, inv *Invocation) (int64, error)
}

// PermissionResolverFunc adapts a function to PermissionResolver.
type PermissionResolverFunc func(ctx context.Context, inv *Invocation) (int64, error)

func (f PermissionResolverFunc) Permissions(ctx context.Context, inv *Invocation) (int64, error) {
	return f(ctx, inv)
}

// OnInvokeFunc runs right before a handler is called.
type OnInvokeFunc func(ctx context.Context, inv *Invocation, d *Descriptor)

// OnOutcomeFunc runs after every dispatch, reportable or not.
type OnOutcomeFunc func(ctx context.Context, inv *Invocation, o Outcome)

// Dispatcher runs the pipeline Matching -> Authorizing -> Popping ->
// Invoking for each invocation. It is safe for concurrent use; configure it
// fully before the first Dispatch.
type Dispatcher struct {
	registry    *Registry
	matcher     *Matcher
	decoder     *Decoder
	cooldowns   CooldownStore
	permissions PermissionResolver
	reporter    Reporter
	owners      map[string]struct{}
	check       CheckFunc
	middleware  []Middleware
	onInvoke    []OnInvokeFunc
	onOutcome   []OnOutcomeFunc
	log         zerolog.Logger
	now         func() time.Time
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithMatcher replaces the default matcher, which has no prefixes.
func WithMatcher(m *Matcher) DispatcherOption {
	return func(d *Dispatcher) { d.matcher = m }
}

// WithCooldowns sets the cooldown store. Defaults to a fresh MemoryCooldowns.
func WithCooldowns(s CooldownStore) DispatcherOption {
	return func(d *Dispatcher) { d.cooldowns = s }
}

// WithPermissions sets how author permissions are looked up. Without it,
// commands that require permissions are denied in guilds.
func WithPermissions(p PermissionResolver) DispatcherOption {
	return func(d *Dispatcher) { d.permissions = p }
}

// WithEntityResolver sets the platform lookup used for entity parameters.
func WithEntityResolver(r EntityResolver) DispatcherOption {
	return func(d *Dispatcher) { d.decoder.Resolver = r }
}

// WithReporter sets the sink for failed outcomes.
func WithReporter(r Reporter) DispatcherOption {
	return func(d *Dispatcher) { d.reporter = r }
}

// WithOwners sets the bot owners. Owners pass OwnersOnly and permission
// requirements.
func WithOwners(ids ...string) DispatcherOption {
	return func(d *Dispatcher) {
		for _, id := range ids {
			if id != "" {
				d.owners[id] = struct{}{}
			}
		}
	}
}

// WithCheck sets a check run before every command's own check.
func WithCheck(fn CheckFunc) DispatcherOption {
	return func(d *Dispatcher) { d.check = fn }
}

// WithMiddleware wraps every handler; the first middleware is the outermost.
func WithMiddleware(mws ...Middleware) DispatcherOption {
	return func(d *Dispatcher) { d.middleware = append(d.middleware, mws...) }
}

// WithOnInvoke adds a hook called just before a handler runs.
func WithOnInvoke(fn OnInvokeFunc) DispatcherOption {
	return func(d *Dispatcher) { d.onInvoke = append(d.onInvoke, fn) }
}

// WithOnOutcome adds a hook called with every outcome.
func WithOnOutcome(fn OnOutcomeFunc) DispatcherOption {
	return func(d *Dispatcher) { d.onOutcome = append(d.onOutcome, fn) }
}

// WithLogger sets the logger. Defaults to zerolog.Nop().
func WithLogger(l zerolog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.log = l }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.now = now }
}

// NewDispatcher returns a dispatcher over reg.
func NewDispatcher(reg *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry:  reg,
		decoder:   &Decoder{},
		cooldowns: NewMemoryCooldowns(),
		owners:    make(map[string]struct{}),
		log:       zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.matcher == nil {
		d.matcher = NewMatcher(reg)
	}
	return d
}

// Registry returns the registry the dispatcher reads.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Matcher returns the dispatcher's matcher.
func (d *Dispatcher) Matcher() *Matcher { return d.matcher }

// IsOwner reports whether id is a configured owner.
func (d *Dispatcher) IsOwner(id string) bool {
	_, ok := d.owners[id]
	return ok
}

// Dispatch runs one invocation to completion. It never panics and never
// returns an error: every failure is classified in the Outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, inv *Invocation) Outcome {
	o := d.dispatch(ctx, inv)

	for _, fn := range d.onOutcome {
		fn(ctx, inv, o)
	}
	d.logOutcome(inv, o)
	if o.Reportable() {
		d.report(ctx, inv, o)
	}
	return o
}

func (d *Dispatcher) dispatch(ctx context.Context, inv *Invocation) Outcome {
	// Matching
	m, ok := d.matcher.Match(inv)
	if !ok {
		return Outcome{Kind: OutcomeNoMatch}
	}
	c := m.Command

	// Authorizing
	if o, ok := d.authorize(ctx, inv, c); !ok {
		return o
	}
	key, cooled := cooldownKey(c, inv)
	if cooled {
		if remaining := d.cooldowns.Remaining(key, d.now()); remaining > 0 {
			return Outcome{Kind: OutcomeOnCooldown, Command: c, Remaining: remaining}
		}
	}

	// Popping
	args, err := PopAll(ctx, c, m.Cursor, inv, d.decoder)
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{Kind: OutcomeCancelled, Command: c, Err: ctx.Err()}
		}
		return Outcome{Kind: OutcomeArgumentError, Command: c, Err: err}
	}

	// Atomic check-and-record; the Remaining check above only filters early.
	var res Reservation
	if cooled {
		r, remaining, ok := d.cooldowns.Reserve(key, d.now(), c.Cooldown.Duration)
		if !ok {
			return Outcome{Kind: OutcomeOnCooldown, Command: c, Remaining: remaining}
		}
		res = r
	}

	// Invoking
	for _, fn := range d.onInvoke {
		fn(ctx, inv, c)
	}
	err = d.invoke(ctx, inv, c, args)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		if res != nil {
			res.Cancel()
		}
		return Outcome{Kind: OutcomeCancelled, Command: c, Args: args, Err: ctx.Err()}
	}
	if err != nil {
		return Outcome{Kind: OutcomeHandlerError, Command: c, Args: args, Err: err}
	}
	return Outcome{Kind: OutcomeInvoked, Command: c, Args: args}
}

// authorize applies the rules of c and of every command above it, outermost
// first, so a subcommand inherits its parents' restrictions.
func (d *Dispatcher) authorize(ctx context.Context, inv *Invocation, c *Descriptor) (Outcome, bool) {
	deny := func(reason DenyReason, missing int64, err error) (Outcome, bool) {
		return Outcome{
			Kind:    OutcomePermissionDenied,
			Command: c,
			Err:     &PermissionError{Reason: reason, Missing: missing, Err: err},
		}, false
	}

	var (
		chain      []*Descriptor
		guildOnly  bool
		ownersOnly bool
		required   int64
	)
	for a := c; a != nil; a = a.parent {
		chain = append([]*Descriptor{a}, chain...)
		guildOnly = guildOnly || a.GuildOnly
		ownersOnly = ownersOnly || a.OwnersOnly
		required |= a.Permissions
	}

	owner := d.IsOwner(inv.Author.ID)
	if guildOnly && !inv.InGuild() {
		return deny(DenyGuildOnly, 0, nil)
	}
	if ownersOnly && !owner {
		return deny(DenyOwnersOnly, 0, nil)
	}
	if required != 0 && inv.InGuild() && !owner {
		if d.permissions == nil {
			return deny(DenyMissingPermissions, required, errors.New("no permission resolver configured"))
		}
		have, err := d.permissions.Permissions(ctx, inv)
		if err != nil {
			return deny(DenyMissingPermissions, required, err)
		}
		if missing := required &^ have; missing != 0 {
			return deny(DenyMissingPermissions, missing, nil)
		}
	}

	checks := []CheckFunc{d.check}
	for _, a := range chain {
		checks = append(checks, a.Check)
	}
	for _, check := range checks {
		if check == nil {
			continue
		}
		ok, err := check(ctx, inv, c)
		if err != nil {
			return Outcome{Kind: OutcomeHandlerError, Command: c, Err: fmt.Errorf("check: %w", err)}, false
		}
		if !ok {
			return deny(DenyCheck, 0, nil)
		}
	}
	return Outcome{}, true
}

// invoke runs the handler chain and turns a panic into a *PanicError.
func (d *Dispatcher) invoke(ctx context.Context, inv *Invocation, c *Descriptor, args Args) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	h := Apply(c, c.Handler, d.middleware...)
	return h(ctx, inv, args)
}

// report hands o to the command's own error handler when it has one, else
// to the dispatcher's reporter.
func (d *Dispatcher) report(ctx context.Context, inv *Invocation, o Outcome) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Msg("reporter panicked")
		}
	}()
	if o.Command != nil && o.Command.OnError != nil {
		o.Command.OnError(ctx, inv, o)
		return
	}
	if d.reporter != nil {
		d.reporter.Report(ctx, inv, o)
	}
}

func (d *Dispatcher) logOutcome(inv *Invocation, o Outcome) {
	if o.Kind == OutcomeNoMatch {
		return
	}
	var ev *zerolog.Event
	switch o.Kind {
	case OutcomeInvoked:
		ev = d.log.Debug()
	case OutcomeHandlerError:
		ev = d.log.Error().Err(o.Err)
		var pe *PanicError
		if errors.As(o.Err, &pe) {
			ev = ev.Bytes("stack", pe.Stack)
		}
	default:
		ev = d.log.Debug().AnErr("reason", o.Err)
	}
	ev.Str("command", o.Command.QualifiedName()).
		Str("outcome", o.Kind.String()).
		Str("style", inv.Style.String()).
		Str("user", inv.Author.ID).
		Str("channel", inv.ChannelID).
		Msg("dispatch")
}

// Run dispatches every invocation received from events on its own
// goroutine until ctx is done or events is closed, then waits for in-flight
// dispatches to finish. Each dispatch gets ctx, so cancelling it abandons
// pending work.
func (d *Dispatcher) Run(ctx context.Context, events <-chan *Invocation) {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case inv, ok := <-events:
			if !ok {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				d.Dispatch(ctx, inv)
			}()
		}
	}
}
