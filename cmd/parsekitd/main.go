/*
Parsekitd starts a parsekit compile server and begins listening for new
connections.

Usage:

	parsekitd [flags]

Once started, parsekitd listens on a line-oriented TCP socket and an HTTP
socket, both backed by the same grammar cache and the same registered
grammars. By default it listens on localhost:7465 (TCP) and localhost:7466
(HTTP). These can be changed with the --listen/-l and --http flags (or the
matching environment variables).

If a token secret is not given, one is generated and seeded from a random
source. As a consequence, in this mode of operation any token issued for the
stop method becomes invalid as soon as the server shuts down. This is
suitable for testing, but a secret should be given explicitly, via flag or
environment variable, for anything long-lived.

The flags are:

	-v, --version
		Give the current version of parsekitd and then exit.

	-l, --listen LISTEN_ADDRESS
		Listen for the line-oriented TCP protocol on the given address. Must
		be in BIND_ADDRESS:PORT or :PORT format. Defaults to the value of
		environment variable PARSEKITD_LISTEN, and if that is not given,
		to localhost:7465.

	--http LISTEN_ADDRESS
		Listen for the HTTP surface on the given address. Defaults to the
		value of environment variable PARSEKITD_HTTP_LISTEN, and if that is
		not given, to localhost:7466.

	-s, --secret TOKEN_SECRET
		Use the provided secret for signing the stop method's bearer tokens.
		Defaults to the value of environment variable PARSEKITD_SECRET, and
		if that is not given, a random secret is generated at startup.

	--db DRIVER[:PARAMS]
		Use the given grammar cache store. DRIVER must be one of: mem,
		sqlite. mem has no further params. sqlite needs the path to a data
		directory, e.g. sqlite:path/to/data. Defaults to the value of
		environment variable PARSEKITD_DB, and if that is not given, to mem.

	-c, --config FILE
		Load engine configuration (severity floor, indent width, wrap
		threshold, disposable-name pattern, case sensitivity) from the given
		TOML file. Defaults to the value of environment variable
		PARSEKITD_CONFIG; if neither is given, built-in defaults are used.
*/
package main

import (
	"crypto/rand"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dekarrin/parsekit/config"
	"github.com/dekarrin/parsekit/internal/demogrammar"
	"github.com/dekarrin/parsekit/rpcserver"
	"github.com/spf13/pflag"
)

const (
	EnvListen     = "PARSEKITD_LISTEN"
	EnvHTTPListen = "PARSEKITD_HTTP_LISTEN"
	EnvSecret     = "PARSEKITD_SECRET"
	EnvDB         = "PARSEKITD_DB"
	EnvConfig     = "PARSEKITD_CONFIG"

	defaultListen     = "localhost:7465"
	defaultHTTPListen = "localhost:7466"
)

var (
	flagVersion = pflag.BoolP("version", "v", false, "Give the current version of parsekitd and then exit.")
	flagListen  = pflag.StringP("listen", "l", "", "Listen for the TCP protocol on the given address.")
	flagHTTP    = pflag.String("http", "", "Listen for the HTTP surface on the given address.")
	flagSecret  = pflag.StringP("secret", "s", "", "Use the given secret for signing stop tokens.")
	flagDB      = pflag.String("db", "", "Use the given grammar cache store connection string.")
	flagConfig  = pflag.StringP("config", "c", "", "Load engine configuration from the given TOML file.")
)

func resolve(flag *pflag.Flag, flagValue, envName string) string {
	if flag.Changed {
		return flagValue
	}
	return os.Getenv(envName)
}

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("parsekitd (parsekit v%s)\n", rpcserver.Version)
		return
	}

	if len(pflag.Args()) > 0 {
		fmt.Fprintf(os.Stderr, "Too many arguments\nDo -h for help.\n")
		os.Exit(1)
	}

	listenAddr := resolve(pflag.Lookup("listen"), *flagListen, EnvListen)
	if listenAddr == "" {
		listenAddr = defaultListen
	}
	httpAddr := resolve(pflag.Lookup("http"), *flagHTTP, EnvHTTPListen)
	if httpAddr == "" {
		httpAddr = defaultHTTPListen
	}

	cfgPath := resolve(pflag.Lookup("config"), *flagConfig, EnvConfig)
	var cfg config.Config
	if cfgPath != "" {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL could not load config: %s\n", err)
			os.Exit(1)
		}
	} else {
		cfg = config.Config{}.FillDefaults()
	}
	cfg = cfg.LoadEnv()

	secretStr := resolve(pflag.Lookup("secret"), *flagSecret, EnvSecret)
	var secret []byte
	if secretStr != "" {
		secret = []byte(secretStr)
	} else {
		secret = make([]byte, 64)
		if _, err := rand.Read(secret); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL could not generate token secret: %s\n", err)
			os.Exit(1)
		}
		log.Printf("WARN  using generated token secret; stop tokens issued will become invalid at shutdown")
	}

	dbConnStr := resolve(pflag.Lookup("db"), *flagDB, EnvDB)
	store, err := parseStoreConnString(dbConnStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL %s\nDo -h for help.\n", err)
		os.Exit(1)
	}
	defer store.Close()

	engine := rpcserver.NewEngine(cfg, store)

	demo, table := demogrammar.Build()
	engine.Register(demogrammar.Name, &rpcserver.Grammar{Def: demo, Transforms: table})
	engine.Register("default", &rpcserver.Grammar{Def: demo, Transforms: table})

	tcp := rpcserver.NewTCPServer(engine, secret, log.Default())
	httpSrv := rpcserver.NewHTTPServer(engine, secret)

	errs := make(chan error, 2)
	go func() { errs <- tcp.ListenAndServe(listenAddr) }()
	go func() { errs <- httpSrv.ListenAndServe(httpAddr) }()

	log.Printf("INFO  parsekitd listening on %s (tcp), %s (http)", listenAddr, httpAddr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errs:
		if err != nil {
			log.Fatalf("FATAL server error: %s", err)
		}
	case <-sig:
		log.Printf("INFO  shutting down")
		tcp.Stop()
		httpSrv.Stop()
	}
}
