// Package instance enforces the single-instance guarantee.
//
// The first shell process acquires an OS file lock and listens on a
// loopback activation socket; later launches fail to take the lock, ping
// the socket so the running instance raises its window, and exit.
package instance

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/nexsan123/quantvision/pkg/platform"
	"github.com/nexsan123/quantvision/pkg/shellerr"
)

const (
	activateCommand = "ACTIVATE"
	activateReply   = "OK"

	dialTimeout = 2 * time.Second
)

// Guard holds the single-instance lock and the activation listener
type Guard struct {
	appName  string
	lockPath string
	portPath string

	lock *flock.Flock

	mu       sync.Mutex
	listener net.Listener
	token    string
}

// NewGuard creates a guard for the named application. Lock and port files
// live in the per-user runtime directory.
func NewGuard(appName string) *Guard {
	return newGuardAt(platform.RuntimeDir(appName), appName)
}

func newGuardAt(dir, appName string) *Guard {
	lockPath := filepath.Join(dir, appName+".lock")
	return &Guard{
		appName:  appName,
		lockPath: lockPath,
		portPath: filepath.Join(dir, appName+".port"),
		lock:     flock.New(lockPath),
	}
}

// Acquire attempts to take the instance lock without blocking.
// Returns true when this process is the primary instance.
func (g *Guard) Acquire() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(g.lockPath), 0o700); err != nil {
		return false, fmt.Errorf("create runtime dir: %w", err)
	}

	locked, err := g.lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return false, nil
	}

	log.Printf("Instance lock acquired: %s", g.lockPath)
	return true, nil
}

// Listen starts the activation listener. Each connection from a secondary
// launch invokes onActivate; the primary uses it to restore and focus its
// window. Only the lock holder may call Listen.
func (g *Guard) Listen(onActivate func()) error {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("bind activation listener: %w", err)
	}

	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		ln.Close()
		return fmt.Errorf("resolve activation port: %w", err)
	}

	// The token keeps an unrelated local process from triggering window
	// activation; only readers of the port file learn it.
	token := uuid.NewString()
	if err := os.WriteFile(g.portPath, []byte(portStr+" "+token), 0o600); err != nil {
		ln.Close()
		return fmt.Errorf("write activation port file: %w", err)
	}

	g.mu.Lock()
	g.listener = ln
	g.token = token
	g.mu.Unlock()

	log.Printf("Activation listener ready: port=%s", portStr)

	go g.accept(ln, onActivate)
	return nil
}

func (g *Guard) accept(ln net.Listener, onActivate func()) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go g.handle(conn, onActivate)
	}
}

func (g *Guard) handle(conn net.Conn, onActivate func()) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(dialTimeout))

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return
	}

	g.mu.Lock()
	token := g.token
	g.mu.Unlock()

	if strings.TrimSpace(line) != activateCommand+" "+token {
		return
	}

	log.Printf("Activation request received, raising window")
	if onActivate != nil {
		onActivate()
	}
	fmt.Fprintln(conn, activateReply)
}

// NotifyExisting asks the running primary instance to raise its window.
// Called by a secondary launch after Acquire returns false.
func (g *Guard) NotifyExisting() error {
	data, err := os.ReadFile(g.portPath)
	if err != nil {
		return shellerr.ErrInstanceLocked(g.lockPath).WithCause(err)
	}

	fields := strings.Fields(string(data))
	if len(fields) != 2 {
		return shellerr.ErrInstanceLocked(g.lockPath).
			WithCause(fmt.Errorf("malformed activation port file"))
	}
	port, token := fields[0], fields[1]

	conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", port), dialTimeout)
	if err != nil {
		return shellerr.ErrInstanceLocked(g.lockPath).WithCause(err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(dialTimeout))

	if _, err := fmt.Fprintln(conn, activateCommand+" "+token); err != nil {
		return fmt.Errorf("send activation: %w", err)
	}

	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return fmt.Errorf("await activation reply: %w", err)
	}
	if strings.TrimSpace(reply) != activateReply {
		return fmt.Errorf("unexpected activation reply: %q", reply)
	}

	log.Printf("Existing instance notified")
	return nil
}

// Release closes the activation listener, removes the port file and drops
// the lock. Idempotent.
func (g *Guard) Release() {
	g.mu.Lock()
	ln := g.listener
	g.listener = nil
	g.mu.Unlock()

	if ln != nil {
		ln.Close()
		os.Remove(g.portPath)
	}

	if g.lock.Locked() {
		if err := g.lock.Unlock(); err != nil {
			log.Printf("Instance lock release failed: %v", err)
		}
	}
}
