// Package access provides the core business logic that arbitrates presence,
// credentials and unlock for the lockbox.
package access

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/lockbox/foundation/latch"
	"github.com/ardanlabs/lockbox/foundation/ledger/database"
	"go.uber.org/zap"
)

// Set of error variables for the access core.
var (
	ErrShutdown   = database.ErrShutdown
	ErrNoPresence = errors.New("no presence detected")
	ErrBadUser    = errors.New("invalid user id")
)

// Default settings.
const (
	DefaultPasscodeTTL = 5 * time.Minute
	DefaultMaxFailures = 3
)

// Actor ids used for records that are not raised by a user.
const (
	ActorPresence = "presence"
	ActorTamper   = "tamper"
	ActorSystem   = "system"
	ActorConsole  = "console"
)

// =============================================================================

// Pipeline records transactions in the ledger.
type Pipeline interface {
	Submit(kind database.Kind, actorID string, payload string) error
	Truncate() int
}

// Actuator drives the lock.
type Actuator interface {
	Open()
	Close()
	IsOpen() bool
}

// Notifier pushes state changes to subscribed peers.
type Notifier interface {
	Lock(open bool)
	Status(state State)
}

// Halter disconnects every peer and stops accepting new ones.
type Halter interface {
	Halt()
}

// Alerter raises an operator facing alert.
type Alerter interface {
	Alert(reason string)
}

// Ledger is the part of the ledger the core resets.
type Ledger interface {
	Reset() error
}

// Config represents the collaborators and settings required by the core.
type Config struct {
	Log         *zap.SugaredLogger
	Latch       *latch.Latch
	Pipeline    Pipeline
	Ledger      Ledger
	Actuator    Actuator
	Notifier    Notifier
	Peers       Halter
	Alerter     Alerter
	Uptime      func() time.Duration
	Generator   GeneratorFunc
	PasscodeTTL time.Duration
	MaxFailures int
}

// Core manages the set of APIs for access control. There is one mutex that
// protects the state and the passcode table. Notifications are always sent
// after the mutex is released.
type Core struct {
	log       *zap.SugaredLogger
	latch     *latch.Latch
	pipeline  Pipeline
	ledger    Ledger
	actuator  Actuator
	notifier  Notifier
	peers     Halter
	alerter   Alerter
	uptime    func() time.Duration
	generator GeneratorFunc
	maxFail   int

	mu       sync.Mutex
	phase    Phase
	username string
	active   string
	failed   int
	locked   bool
	tamper   bool
	shutdown bool
	table    *PasscodeTable
}

// NewCore constructs a core for access api access.
func NewCore(cfg Config) *Core {
	ttl := cfg.PasscodeTTL
	if ttl <= 0 {
		ttl = DefaultPasscodeTTL
	}

	maxFail := cfg.MaxFailures
	if maxFail <= 0 {
		maxFail = DefaultMaxFailures
	}

	generator := cfg.Generator
	if generator == nil {
		generator = GeneratePasscode
	}

	uptime := cfg.Uptime
	if uptime == nil {
		start := time.Now()
		uptime = func() time.Duration { return time.Since(start) }
	}

	lt := cfg.Latch
	if lt == nil {
		lt = latch.New()
	}

	return &Core{
		log:       cfg.Log,
		latch:     lt,
		pipeline:  cfg.Pipeline,
		ledger:    cfg.Ledger,
		actuator:  cfg.Actuator,
		notifier:  cfg.Notifier,
		peers:     cfg.Peers,
		alerter:   cfg.Alerter,
		uptime:    uptime,
		generator: generator,
		maxFail:   maxFail,
		table:     NewPasscodeTable(ttl),
	}
}

// =============================================================================

// OnPresence handles a presence signal. It only has an effect while the
// phase is Ready, any other phase ignores the signal. It reports whether the
// signal started a new access cycle.
func (c *Core) OnPresence(reading uint16) (bool, error) {
	if c.latch.IsSet() {
		return false, ErrShutdown
	}

	c.mu.Lock()

	if c.phase != PhaseReady {
		phase := c.phase
		c.mu.Unlock()
		c.log.Infow("presence ignored", "reading", reading, "phase", phase)
		return false, nil
	}

	c.phase = PhasePresenceDetected
	c.submit(database.KindPresenceDetected, ActorPresence, fmt.Sprintf("voc=%d", reading))
	c.phase = PhaseWaitingPasscode

	state := c.snapshot()
	c.mu.Unlock()

	c.log.Infow("presence detected", "reading", reading, "phase", state.Phase)
	c.notifier.Status(state)

	return true, nil
}

// BindUsername records the username. When a presence cycle is waiting for a
// passcode a new one is issued for the user, otherwise the username is only
// kept for later. It reports whether a passcode was issued.
func (c *Core) BindUsername(userID string) (bool, error) {
	if c.latch.IsSet() {
		return false, ErrShutdown
	}

	userID, err := c.boundUser(userID)
	if err != nil {
		return false, err
	}

	c.mu.Lock()

	c.username = userID

	if c.phase != PhaseWaitingPasscode {
		phase := c.phase
		c.mu.Unlock()
		c.log.Infow("username bound", "user", userID, "phase", phase, "issued", false)
		return false, nil
	}

	c.issue(userID)

	state := c.snapshot()
	c.mu.Unlock()

	c.log.Infow("username bound", "user", userID, "phase", state.Phase, "issued", true)
	c.notifier.Status(state)

	return true, nil
}

// GeneratePasscode issues a passcode for the user from the console. Like a
// username write it requires a presence cycle waiting for a passcode.
func (c *Core) GeneratePasscode(userID string) (string, error) {
	if c.latch.IsSet() {
		return "", ErrShutdown
	}

	userID, err := c.boundUser(userID)
	if err != nil {
		return "", err
	}

	c.mu.Lock()

	if c.phase != PhaseWaitingPasscode {
		c.mu.Unlock()
		return "", ErrNoPresence
	}

	c.username = userID
	code := c.issue(userID)

	state := c.snapshot()
	c.mu.Unlock()

	c.log.Infow("passcode generated", "user", userID)
	c.notifier.Status(state)

	return code, nil
}

// VerifyPasscode checks the entered code against the passcode issued to the
// user. Outside of the WaitingPasscode phase it returns false without
// touching any state.
func (c *Core) VerifyPasscode(userID string, code string) (bool, error) {
	if c.latch.IsSet() {
		return false, ErrShutdown
	}

	c.mu.Lock()

	if c.phase != PhaseWaitingPasscode {
		c.mu.Unlock()
		return false, nil
	}

	issued, exists := c.table.Lookup(userID, c.uptime())

	if exists && issued == code {
		c.table.Remove(userID)
		c.phase = PhaseReady
		c.failed = 0
		c.active = userID
		c.submit(database.KindPasscodeVerified, userID, "access granted")
		c.actuator.Open()

		state := c.snapshot()
		c.mu.Unlock()

		c.log.Infow("passcode verified", "user", userID)
		c.notifier.Lock(true)
		c.notifier.Status(state)

		return true, nil
	}

	c.failed++

	locked := c.failed >= c.maxFail
	switch {
	case locked:
		c.phase = PhaseLocked
		c.locked = true
		c.submit(database.KindSystemLocked, userID, fmt.Sprintf("failed attempts=%d", c.failed))
		c.actuator.Close()

	default:
		c.phase = PhaseReady
		c.submit(database.KindPasscodeFailed, userID, fmt.Sprintf("attempt=%d", c.failed))
	}

	state := c.snapshot()
	c.mu.Unlock()

	c.log.Infow("passcode failed", "user", userID, "attempts", state.FailedAttempts, "locked", locked)
	if locked {
		c.notifier.Lock(false)
	}
	c.notifier.Status(state)

	return false, nil
}

// TriggerTamperShutdown moves the system into the terminal Shutdown phase.
// Only the first call has an effect and it reports whether it did.
func (c *Core) TriggerTamperShutdown(reason string) bool {
	c.mu.Lock()

	if c.shutdown {
		c.mu.Unlock()
		return false
	}

	c.tamper = true
	c.locked = true
	c.shutdown = true
	c.phase = PhaseShutdown

	// The tamper record goes in before the latch closes the pipeline. The
	// shutdown record is exempt from the latch.
	c.submit(database.KindTamperDetected, ActorTamper, reason)
	c.latch.Set(reason)
	c.submit(database.KindSystemShutdown, ActorSystem, reason)

	c.actuator.Close()

	c.mu.Unlock()

	c.log.Errorw("TAMPER SHUTDOWN", "reason", reason)

	if c.peers != nil {
		c.peers.Halt()
	}

	if c.alerter != nil {
		c.alerter.Alert(reason)
	}

	return true
}

// Reset clears pending transactions, returns the state machine to Ready and
// starts the ledger over from a genesis block. It is rejected once the
// system has shut down.
func (c *Core) Reset() error {
	c.mu.Lock()

	if c.shutdown || c.latch.IsSet() {
		c.mu.Unlock()
		return ErrShutdown
	}

	if n := c.pipeline.Truncate(); n > 0 {
		c.log.Infow("pending transactions dropped", "count", n)
	}

	c.phase = PhaseReady
	c.username = ""
	c.active = ""
	c.failed = 0
	c.locked = false
	c.tamper = false
	c.table.Clear()

	state := c.snapshot()
	c.mu.Unlock()

	// The ledger lock is taken before the access lock, never inside it.
	if c.ledger != nil {
		if err := c.ledger.Reset(); err != nil {
			return fmt.Errorf("reset ledger: %w", err)
		}
	}

	c.log.Infow("ledger and state reset")
	c.notifier.Status(state)

	return nil
}

// =============================================================================

// OpenLock opens the lock from the console.
func (c *Core) OpenLock() error {
	if c.latch.IsSet() {
		return ErrShutdown
	}

	c.mu.Lock()
	c.actuator.Open()
	c.submit(database.KindAccessGranted, ActorConsole, "manual open")
	c.mu.Unlock()

	c.log.Infow("lock opened", "actor", ActorConsole)
	c.notifier.Lock(true)

	return nil
}

// CloseLock closes the lock from the console.
func (c *Core) CloseLock() error {
	if c.latch.IsSet() {
		return ErrShutdown
	}

	c.mu.Lock()
	c.actuator.Close()
	c.mu.Unlock()

	c.log.Infow("lock closed", "actor", ActorConsole)
	c.notifier.Lock(false)

	return nil
}

// Sweep purges expired passcodes and returns how many were purged.
func (c *Core) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.table.Purge(c.uptime())
}

// =============================================================================

// State returns a snapshot of the state machine.
func (c *Core) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshot()
}

// Username returns the last bound username.
func (c *Core) Username() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.username
}

// Passcode returns the live passcode issued to the last bound user.
func (c *Core) Passcode() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	code, _ := c.table.Lookup(c.username, c.uptime())
	return code
}

// LockOpen reports whether the lock is open.
func (c *Core) LockOpen() bool {
	return c.actuator.IsOpen()
}

// Halted reports whether the system has shut down.
func (c *Core) Halted() bool {
	return c.latch.IsSet()
}

// =============================================================================

// issue generates and stores a passcode for the user. The caller must hold
// the lock.
func (c *Core) issue(userID string) string {
	now := c.uptime()
	code := c.generator(now, userID)

	if evicted := c.table.Insert(userID, code, now); evicted != "" {
		c.log.Infow("passcode evicted", "user", evicted)
	}

	c.active = userID
	c.submit(database.KindPasscodeGenerated, userID, "passcode issued")

	return code
}

// submit hands the transaction to the pipeline. A rejected transaction is
// logged and the state change still stands.
func (c *Core) submit(kind database.Kind, actorID string, payload string) {
	if err := c.pipeline.Submit(kind, actorID, payload); err != nil {
		c.log.Errorw("submit transaction", "kind", kind, "actor", actorID, "ERROR", err)
	}
}

// snapshot builds the state. The caller must hold the lock.
func (c *Core) snapshot() State {
	return State{
		Phase:          c.phase,
		ActiveUser:     c.active,
		FailedAttempts: uint8(min(c.failed, 255)),
		Locked:         c.locked,
		Tamper:         c.tamper,
		Shutdown:       c.shutdown,
		LockOpen:       c.actuator.IsOpen(),
		Passcodes:      c.table.Len(),
	}
}

// boundUser bounds the user id to the ledger field width.
func (c *Core) boundUser(userID string) (string, error) {
	if userID == "" {
		return "", ErrBadUser
	}

	bounded, truncated := database.Truncate(userID, database.MaxActorIDLen)
	if truncated {
		c.log.Infow("user id truncated", "user", userID, "bounded", bounded)
	}

	if bounded == "" {
		return "", ErrBadUser
	}

	return bounded, nil
}
