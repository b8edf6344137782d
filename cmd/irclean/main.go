package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/irclean/irclean/internal/config"
	"github.com/irclean/irclean/internal/console"
	"github.com/irclean/irclean/internal/irc"
	"github.com/irclean/irclean/internal/storage"
)

// Version information - set at build time via ldflags
var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

const (
	backlogLines = 20
	quitTimeout  = 5 * time.Second
)

func main() {
	// Command line flags
	configPath := flag.String("c", "", "Path to configuration file")
	server := flag.String("server", "", "IRC server host")
	port := flag.Int("port", 0, "IRC server port")
	nick := flag.String("nick", "", "Nickname")
	channel := flag.String("channel", "", "Channel to join")
	debug := flag.Bool("debug", false, "Log every protocol line")
	showVersion := flag.Bool("v", false, "Show version information and exit")
	showVersionLong := flag.Bool("version", false, "Show version information and exit")
	flag.Parse()

	// Show version and exit
	if *showVersion || *showVersionLong {
		fmt.Printf("irclean version %s\n", version)
		fmt.Printf("Built: %s\n", buildDate)
		fmt.Printf("Commit: %s\n", gitCommit)
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags override the file
	if *server != "" {
		cfg.Server = *server
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *nick != "" {
		cfg.Nick = *nick
	}
	if *channel != "" {
		cfg.Channel = *channel
	}
	if *debug {
		cfg.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := run(cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := &config.Config{}
		cfg.SetDefaults()
		return cfg, nil
	}

	// Make config path absolute
	if !filepath.IsAbs(path) {
		wd, _ := os.Getwd()
		path = filepath.Join(wd, path)
	}
	return config.Load(path)
}

func run(cfg *config.Config) error {
	decoder, err := irc.NewDecoder(cfg.Encoding)
	if err != nil {
		return fmt.Errorf("invalid encoding: %w", err)
	}
	dial, err := cfg.Dialer()
	if err != nil {
		return err
	}

	transcript, err := storage.LoadTranscript(cfg.DataDir, cfg.Channel)
	if err != nil {
		log.Printf("Warning: could not load transcript: %v", err)
		transcript = nil
	}

	ui := console.New(os.Stdout, transcript)
	if transcript != nil {
		for _, line := range transcript.Last(backlogLines) {
			fmt.Println(line)
		}
	}

	session := irc.NewSession(cfg.Server, cfg.Port, cfg.Nick, cfg.Channel)
	session.Dial = dial
	session.Decoder = decoder
	session.Debug = cfg.Debug
	session.AddHandler(ui)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal %v, shutting down...", sig)
		shutdown(session, cancel)
	}()

	log.Printf("Connecting to %s...", cfg.Addr())
	if err := session.Connect(ctx); err != nil {
		return err
	}

	input := make(chan string)
	editor := console.NewLineEditor()
	defer editor.Close()
	go func() {
		defer close(input)
		for {
			line, err := editor.GetLine("")
			if err != nil {
				return
			}
			input <- line
		}
	}()

	for {
		select {
		case <-session.Done():
			return session.Err()
		case line, ok := <-input:
			if !ok {
				shutdown(session, cancel)
				return session.Err()
			}
			err := ui.Execute(session, line)
			switch {
			case errors.Is(err, console.ErrQuit):
				waitOrCancel(session, cancel)
				return nil
			case err != nil:
				ui.Println(fmt.Sprintf("-!- %v", err))
			}
		}
	}
}

// shutdown asks the server to end the session and waits for it, closing
// the connection if the server does not answer in time.
func shutdown(session *irc.Session, cancel context.CancelFunc) {
	if err := session.Close(); err != nil {
		cancel()
	}
	waitOrCancel(session, cancel)
}

func waitOrCancel(session *irc.Session, cancel context.CancelFunc) {
	select {
	case <-session.Done():
	case <-time.After(quitTimeout):
		cancel()
		<-session.Done()
	}
}
