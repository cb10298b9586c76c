package protocol

import (
	"bytes"
	"math/big"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/paperplane/cipherlink/envelope"
	"github.com/paperplane/cipherlink/identity"
)

func testIdentity(t *testing.T, name string) *identity.Identity {
	t.Helper()
	id, err := identity.New(name, 50, 50)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

// loopbackPair dials a real TCP connection over 127.0.0.1, unlike net.Pipe,
// so that both ends can write their handshake certificate concurrently
// without depending on the peer having already posted a matching read.
func loopbackPair(t *testing.T) (server, client net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	acceptedCh := make(chan net.Conn, 1)
	acceptErrCh := make(chan error, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			acceptErrCh <- err
			return
		}
		acceptedCh <- conn
	}()

	client, err = net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	select {
	case server = <-acceptedCh:
	case err := <-acceptErrCh:
		t.Fatal(err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out accepting loopback connection")
	}
	return server, client
}

func TestHandshakeSuccess(t *testing.T) {
	alice := testIdentity(t, "alice")
	bob := testIdentity(t, "bob")

	serverConn, clientConn := loopbackPair(t)
	defer serverConn.Close()
	defer clientConn.Close()

	var wg sync.WaitGroup
	var serverPeer, clientPeer *identity.PeerIdentity
	var serverErr, clientErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		serverPeer, serverErr = Handshake(serverConn, alice)
	}()
	go func() {
		defer wg.Done()
		clientPeer, clientErr = Handshake(clientConn, bob)
	}()
	wg.Wait()

	if serverErr != nil {
		t.Fatalf("server handshake: %v", serverErr)
	}
	if clientErr != nil {
		t.Fatalf("client handshake: %v", clientErr)
	}
	if serverPeer.Name != "bob" {
		t.Fatalf("server's peer name = %q, want bob", serverPeer.Name)
	}
	if clientPeer.Name != "alice" {
		t.Fatalf("client's peer name = %q, want alice", clientPeer.Name)
	}
}

func TestMessageExchange(t *testing.T) {
	alice := testIdentity(t, "alice")
	bob := testIdentity(t, "bob")

	serverConn, clientConn := loopbackPair(t)
	defer serverConn.Close()
	defer clientConn.Close()

	var wg sync.WaitGroup
	var clientPeer *identity.PeerIdentity
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = Handshake(serverConn, alice)
	}()
	go func() {
		defer wg.Done()
		clientPeer, _ = Handshake(clientConn, bob)
	}()
	wg.Wait()

	env, err := envelope.Wrap([]byte("hello bob"), clientPeer.RSA)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteFrame(clientConn, env.Serialize()); err != nil {
		t.Fatal(err)
	}

	payload, err := ReadFrame(serverConn)
	if err != nil {
		t.Fatal(err)
	}

	gotEnv, err := envelope.Deserialize(payload)
	if err != nil {
		t.Fatal(err)
	}
	plaintext, err := gotEnv.Unwrap(alice.RSA)
	if err != nil {
		t.Fatal(err)
	}
	if string(plaintext) != "hello bob" {
		t.Fatalf("got %q", plaintext)
	}
}

func TestMessageExchangeDetectsTamperedEnvelope(t *testing.T) {
	alice := testIdentity(t, "alice")
	bob := testIdentity(t, "bob")

	serverConn, clientConn := loopbackPair(t)
	defer serverConn.Close()
	defer clientConn.Close()

	var wg sync.WaitGroup
	var clientPeer *identity.PeerIdentity
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = Handshake(serverConn, alice)
	}()
	go func() {
		defer wg.Done()
		clientPeer, _ = Handshake(clientConn, bob)
	}()
	wg.Wait()

	env, err := envelope.Wrap([]byte("hello bob"), clientPeer.RSA)
	if err != nil {
		t.Fatal(err)
	}
	env.Ciphertext[0] ^= 0xff
	if err := WriteFrame(clientConn, env.Serialize()); err != nil {
		t.Fatal(err)
	}

	payload, err := ReadFrame(serverConn)
	if err != nil {
		t.Fatal(err)
	}
	gotEnv, err := envelope.Deserialize(payload)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := gotEnv.Unwrap(alice.RSA); err != envelope.ErrIntegrity {
		t.Fatalf("expected envelope.ErrIntegrity, got %v", err)
	}
	// the connection itself must still be usable -- integrity failure is
	// logged, not a teardown condition.
	if serverConn.Close() != nil || clientConn.Close() != nil {
		t.Fatal("connections should still be open and closable cleanly")
	}
}

func TestRunEndpointExitCommand(t *testing.T) {
	alice := testIdentity(t, "alice")
	bob := testIdentity(t, "bob")

	serverConn, clientConn := loopbackPair(t)

	var wg sync.WaitGroup
	wg.Add(2)

	var serverErr, clientErr error
	var clientOut bytes.Buffer

	go func() {
		defer wg.Done()
		serverErr = RunEndpoint(serverConn, alice, strings.NewReader(""), &bytes.Buffer{})
	}()
	go func() {
		defer wg.Done()
		clientErr = RunEndpoint(clientConn, bob, strings.NewReader("exit\n"), &clientOut)
	}()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for RunEndpoint to exit on both sides")
	}

	if clientErr != nil {
		t.Fatalf("client RunEndpoint: %v", clientErr)
	}
	if serverErr != nil {
		t.Fatalf("server RunEndpoint: %v", serverErr)
	}
	if !strings.Contains(clientOut.String(), "connected to") || !strings.Contains(clientOut.String(), "alice") {
		t.Fatalf("client output missing connection banner: %q", clientOut.String())
	}
}

func TestHandshakeFailsOnForgedCertificate(t *testing.T) {
	alice := testIdentity(t, "alice")
	mallory := testIdentity(t, "mallory")

	serverConn, clientConn := loopbackPair(t)
	defer serverConn.Close()
	defer clientConn.Close()

	var wg sync.WaitGroup
	var serverErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, serverErr = Handshake(serverConn, alice)
	}()
	go func() {
		defer wg.Done()
		// mallory sends a certificate whose signature was computed, then
		// corrupted, so it no longer matches the transmitted public keys.
		cert, err := mallory.Certificate()
		if err != nil {
			return
		}
		cert.SigR = new(big.Int).Add(cert.SigR, big.NewInt(1))
		if err := SendCertificate(clientConn, cert); err != nil {
			return
		}
		_, _ = ReceiveCertificate(clientConn)
	}()
	wg.Wait()

	if serverErr != ErrHandshakeFailure {
		t.Fatalf("expected ErrHandshakeFailure, got %v", serverErr)
	}
}
