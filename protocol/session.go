package protocol

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/satori/go.uuid"

	"github.com/paperplane/cipherlink/envelope"
	"github.com/paperplane/cipherlink/identity"
	"github.com/paperplane/cipherlink/internal/clog"
	"github.com/paperplane/cipherlink/internal/termcolor"
)

var log = clog.MustGetLogger("protocol")

// stopSignal is an owned, by-pointer-shared cancellation token. Unlike the
// original's package-level atomic boolean, one is constructed per connection
// and passed into both the reader and writer goroutines.
type stopSignal struct {
	stopped atomic.Bool
}

func newStopSignal() *stopSignal { return &stopSignal{} }

func (s *stopSignal) set()        { s.stopped.Store(true) }
func (s *stopSignal) isSet() bool { return s.stopped.Load() }

// RunEndpoint drives the handshake then the message-exchange loop: a reader
// goroutine and the calling (writer) goroutine share stop, neither holding a
// lock during I/O. The writer closes conn as soon as it stops, which
// unblocks the reader's pending recv, then joins it before returning.
func RunEndpoint(conn net.Conn, self *identity.Identity, stdin io.Reader, stdout io.Writer) error {
	sessionID := uuid.NewV4().String()[:8]

	peer, err := Handshake(conn, self)
	if err != nil {
		log.Errorf("[%s] handshake failed: %v", sessionID, err)
		conn.Close()
		return err
	}
	log.Noticef("[%s] handshake complete with %s", sessionID, peer.Name)
	fmt.Fprintf(stdout, "connected to %s\n", termcolor.Green(peer.Name))

	stop := newStopSignal()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Guard(func() {
			readLoop(conn, self, peer, stdout, stop, sessionID)
		})
	}()

	writeLoop(conn, self, peer, stdin, stop, sessionID)

	// The reader has no read deadline and no cancellation channel of its
	// own: it can only be parked in a blocking ReadFrame. Closing conn here,
	// before joining, is what unblocks that read -- waiting on wg first
	// would deadlock against an idle peer.
	conn.Close()
	wg.Wait()
	return nil
}

// writeLoop reads lines from stdin and sends them as wrapped envelopes until
// the "exit" command or EOF on stdin.
func writeLoop(conn net.Conn, self *identity.Identity, peer *identity.PeerIdentity, stdin io.Reader, stop *stopSignal, sessionID string) {
	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		if stop.isSet() {
			return
		}
		line := scanner.Text()
		if line == "exit" {
			stop.set()
			return
		}

		env, err := envelope.Wrap([]byte(line), peer.RSA)
		if err != nil {
			log.Errorf("[%s] wrap message: %v", sessionID, err)
			continue
		}
		if err := WriteFrame(conn, env.Serialize()); err != nil {
			log.Errorf("[%s] send message: %v", sessionID, err)
			stop.set()
			return
		}
	}
	stop.set()
}

// readLoop receives framed envelopes, unwraps them with self's RSA private
// key, and prints the plaintext with a timestamp and the peer's name.
func readLoop(conn net.Conn, self *identity.Identity, peer *identity.PeerIdentity, stdout io.Writer, stop *stopSignal, sessionID string) {
	for {
		if stop.isSet() {
			return
		}
		payload, err := ReadFrame(conn)
		if err == io.EOF {
			log.Noticef("[%s] peer closed connection", sessionID)
			stop.set()
			return
		}
		if err != nil {
			log.Errorf("[%s] read frame: %v", sessionID, err)
			stop.set()
			return
		}

		env, err := envelope.Deserialize(payload)
		if err != nil {
			log.Errorf("[%s] parse envelope: %v", sessionID, err)
			stop.set()
			return
		}

		plaintext, err := env.Unwrap(self.RSA)
		if err != nil {
			log.Warningf("[%s] envelope integrity check failed: %v", sessionID, err)
			continue
		}

		fmt.Fprintf(stdout, "%s %s: %s\n",
			time.Now().Format("15:04:05"),
			termcolor.Cyan(peer.Name),
			strings.TrimRight(string(plaintext), "\n"))
	}
}
