// Command cipherlink is the two-party secure chat endpoint: run once as
// --server to listen, once as --client to dial, and exchange authenticated,
// encrypted lines of text over a single TCP connection.
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/urfave/cli"

	"github.com/paperplane/cipherlink/identity"
	"github.com/paperplane/cipherlink/internal/clog"
	"github.com/paperplane/cipherlink/internal/version"
	"github.com/paperplane/cipherlink/protocol"
)

const listenAddr = "127.0.0.1:8888"

var log = clog.MustGetLogger("main")

func main() {
	app := cli.NewApp()
	app.Name = "cipherlink"
	app.Usage = "cipherlink --server|--client <name>"
	app.HideHelp = true
	app.HideVersion = true
	// --server/--client must be registered flags: urfave/cli v1 hands
	// argument parsing to the stdlib flag package underneath, which rejects
	// any "--foo" it doesn't recognize before Action ever runs.
	app.Flags = []cli.Flag{
		cli.BoolFlag{Name: "server"},
		cli.BoolFlag{Name: "client"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "usage: cipherlink --server|--client <name>")
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	log.Noticef("cipherlink %s", version.Current.String())

	isServer := c.Bool("server")
	isClient := c.Bool("client")
	name := c.Args().Get(0)
	if name == "" || isServer == isClient {
		fmt.Fprintln(os.Stderr, "usage: cipherlink --server|--client <name>")
		os.Exit(1)
	}

	self, err := identity.New(name, identity.DefaultRSABits, identity.DefaultElGamalBits)
	if err != nil {
		return fmt.Errorf("generate identity: %w", err)
	}

	conn, err := dial(isServer)
	if err != nil {
		return fmt.Errorf("establish connection: %w", err)
	}

	return protocol.RunEndpoint(conn, self, os.Stdin, os.Stdout)
}

func dial(isServer bool) (net.Conn, error) {
	if isServer {
		ln, err := net.Listen("tcp", listenAddr)
		if err != nil {
			return nil, err
		}
		defer ln.Close()
		log.Noticef("listening on %s", listenAddr)
		return ln.Accept()
	}

	log.Noticef("dialing %s", listenAddr)
	return net.Dial("tcp", listenAddr)
}
