// Command mapperproxy is the thin entrypoint: it binds CLI flags onto
// internal/config.Config, accepts player connections, dials the game
// server for each one, and wires a proxy session together with the mapper
// command surface that rides on top of it.
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/seekerror/logw"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"mapperproxy/internal/config"
	"mapperproxy/internal/editor"
	"mapperproxy/internal/events"
	"mapperproxy/internal/mapdb"
	"mapperproxy/internal/mapper"
	"mapperproxy/internal/mpi"
	"mapperproxy/internal/proxy"
	"mapperproxy/internal/telnet"
	"mapperproxy/internal/xmlstream"
)

const (
	acceptBackoffStart = 50 * time.Millisecond
	acceptBackoffMax   = time.Second
)

var acceptSleep = time.Sleep

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		mapPath    string
		labelsPath string
		localHost  string
		localPort  int
		remoteHost string
		remotePort int
		noSSL      bool
	)

	cmd := &cobra.Command{
		Use:   "mapperproxy",
		Short: "Telnet proxy that auto-maps a MUD while you play",
		Long: "Sits between a Telnet client and a MUD server, decoding the game's " +
			"MPI and inline XML room protocol to keep a persistent map synced with " +
			"the player's position, and answering a set of mapper commands typed " +
			"at the game prompt.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg = applyFlagOverrides(cfg, cmd.Flags(), flagOverrides{
				localHost:  localHost,
				localPort:  localPort,
				remoteHost: remoteHost,
				remotePort: remotePort,
				noSSL:      noSSL,
			})
			return runServer(cfg, mapPath, labelsPath)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "mapperproxy.yaml", "Path to the YAML settings file")
	flags.StringVar(&mapPath, "map", "map.json", "Path to the persisted map file")
	flags.StringVar(&labelsPath, "labels", "labels.json", "Path to the persisted room labels file")
	flags.StringVar(&localHost, "local-host", "", "Address to listen for the player's Telnet client on")
	flags.IntVar(&localPort, "local-port", 4000, "Port to listen for the player's Telnet client on")
	flags.StringVar(&remoteHost, "remote-host", "mume.org", "Game server host to connect to")
	flags.IntVar(&remotePort, "remote-port", 4242, "Game server port to connect to")
	flags.BoolVar(&noSSL, "no-ssl", false, "Connect to the game server in plain text instead of TLS")

	return cmd
}

// flagOverrides holds the values cobra bound the connection flags into,
// separate from cobra's internal tracking of which ones were actually set.
type flagOverrides struct {
	localHost  string
	localPort  int
	remoteHost string
	remotePort int
	noSSL      bool
}

// applyFlagOverrides layers any explicitly-set connection flag on top of
// the config file's values, leaving fields the user didn't pass a flag for
// untouched.
func applyFlagOverrides(cfg config.Config, flags *pflag.FlagSet, o flagOverrides) config.Config {
	if flags.Changed("local-host") {
		cfg.LocalHost = o.localHost
	}
	if flags.Changed("local-port") {
		cfg.LocalPort = o.localPort
	}
	if flags.Changed("remote-host") {
		cfg.RemoteHost = o.remoteHost
	}
	if flags.Changed("remote-port") {
		cfg.RemotePort = o.remotePort
	}
	if flags.Changed("no-ssl") {
		cfg.NoSSL = o.noSSL
	}
	return cfg
}

// runServer loads the persisted map, starts listening for players, and
// blocks until the listener fails or the process receives an interrupt.
func runServer(cfg config.Config, mapPath, labelsPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := mapdb.Load(mapPath, labelsPath)
	if err != nil {
		logw.Infof(ctx, "mapperproxy: no existing map at %q (%v), starting empty", mapPath, err)
		store = mapdb.New()
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.LocalHost, cfg.LocalPort))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer ln.Close()
	logw.Infof(ctx, "mapperproxy: listening on %s, relaying to %s:%d", ln.Addr(), cfg.RemoteHost, cfg.RemotePort)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	err = acceptConnections(ln, func(conn net.Conn) {
		go func() {
			if err := handleConnection(ctx, conn, cfg, store, mapPath, labelsPath); err != nil {
				logw.Errorf(ctx, "mapperproxy: session ended: %v", err)
			}
		}()
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("accept: %w", err)
	}
	return nil
}

// acceptConnections runs the listener's accept loop, retrying transient
// errors with exponential backoff instead of tearing the listener down, and
// handing every accepted connection to handle on its own goroutine.
func acceptConnections(ln net.Listener, handle func(net.Conn)) error {
	backoff := acceptBackoffStart
	for {
		conn, err := ln.Accept()
		if err != nil {
			if isTemporaryAcceptError(err) {
				logw.Errorf(context.Background(), "mapperproxy: temporary error accepting connection: %v; retrying in %s", err, backoff)
				acceptSleep(backoff)
				backoff *= 2
				if backoff > acceptBackoffMax {
					backoff = acceptBackoffMax
				}
				continue
			}
			return err
		}
		backoff = acceptBackoffStart
		handle(conn)
	}
}

// isTemporaryAcceptError reports whether Accept's error is transient and
// worth retrying with backoff rather than tearing down the listener,
// mirroring the accept-loop resilience in the teacher's server.
func isTemporaryAcceptError(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() || ne.Temporary() { //nolint:staticcheck // Temporary is deprecated but still the signal the teacher's loop checks
			return true
		}
	}
	return errors.Is(err, os.ErrDeadlineExceeded)
}

// handleConnection dials the game server for one player connection and
// runs the proxy session and its mapper command surface until either side
// disconnects.
func handleConnection(parent context.Context, playerConn net.Conn, cfg config.Config, store *mapdb.Store, mapPath, labelsPath string) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	defer playerConn.Close()

	gameConn, err := dialGame(cfg)
	if err != nil {
		return fmt.Errorf("dial game server: %w", err)
	}
	defer gameConn.Close()

	task := editor.New(os.TempDir())
	framer := mpi.New(ctx, task)
	tokenizer := xmlstream.New()
	q := events.New(256)

	tokenizer.OnEvent = func(ev xmlstream.Event) {
		q.Push(ctx, events.Event{Name: ev.Name, Data: ev.Data, Attrs: ev.Attrs})
	}

	sess := proxy.New(playerConn, gameConn, framer, tokenizer, q)
	framer.ReplyUpstream = func(frame []byte) { _ = sess.GameOut.Write(frame, false) }

	charset := telnet.NewCharset(sess.GameCodec)
	sess.GameOut.Charset = charset
	sess.GameCodec.OnSubnegotiation = func(opt byte, payload []byte) {
		if opt != telnet.OptCharset {
			return
		}
		if reply := charset.HandleSubnegotiation(payload); reply != nil {
			_ = sess.GameOut.WriteSubnegotiation(telnet.OptCharset, reply)
		}
	}

	if cfg.PromptTerminatorLF {
		sess.SetPromptTerminator(proxy.TerminatorCRLF)
	}

	m := mapper.New(store, &cfg,
		func(line string) { _ = sess.GameOut.Write([]byte(line+"\n"), true) },
		func(line string) { _ = sess.PlayerOut.Write([]byte(line+"\n"), true) },
	)
	m.MapPath = mapPath
	m.LabelsPath = labelsPath
	m.Attach(q)

	go q.Run(ctx)
	defer q.Close()

	if err := sess.Handshake(ctx); err != nil {
		return fmt.Errorf("handshake: %w", err)
	}

	return sess.RunReaders(ctx)
}

func dialGame(cfg config.Config) (net.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.RemoteHost, cfg.RemotePort)
	if cfg.NoSSL {
		return net.Dial("tcp", addr)
	}
	return tls.Dial("tcp", addr, &tls.Config{ServerName: cfg.RemoteHost})
}
