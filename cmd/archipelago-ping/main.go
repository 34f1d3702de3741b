// Command archipelago-ping connects to an Archipelago room, logs every
// event it receives, and exits on the first fatal disconnect or an
// interrupt signal. It's a minimal end-to-end exercise of the library, not
// a real client.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/michael4d45/archipelago"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("archipelago-ping: .env: %v", err)
	}

	var (
		url  string
		game string
		name string
		pass string
	)
	flag.StringVar(&url, "url", os.Getenv("ARCHIPELAGO_URL"), "room address, e.g. archipelago.gg:38281")
	flag.StringVar(&game, "game", os.Getenv("ARCHIPELAGO_GAME"), "game name this slot is playing")
	flag.StringVar(&name, "name", os.Getenv("ARCHIPELAGO_NAME"), "slot name")
	flag.StringVar(&pass, "password", os.Getenv("ARCHIPELAGO_PASSWORD"), "room password, if any")
	flag.Parse()

	if url == "" || game == "" || name == "" {
		fmt.Fprintln(os.Stderr, "usage: archipelago-ping -url host:port -game Game -name Slot [-password pw]")
		os.Exit(2)
	}

	logger := log.New(os.Stderr, "archipelago-ping: ", log.LstdFlags)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		logger.Printf("signal received, shutting down")
		cancel()
	}()

	opts := archipelago.ConnectionOptions{
		Password:     pass,
		ItemHandling: archipelago.DefaultItemHandling,
		Tags:         nil,
		SlotData:     true,
	}

	conn := archipelago.Connect(ctx, url, game, name, opts, nil, logger)

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, ev := range conn.Update() {
				logEvent(logger, ev)
			}
			if conn.IsDisconnected() {
				logger.Printf("disconnected: %v", conn.Err())
				return
			}
			if conn.IsConnected() {
				announce(conn, logger)
			}
		}
	}
}

// announced tracks whether we've already printed the post-connect summary,
// since Update is polled continuously while Connected.
var announced bool

func announce(conn *archipelago.Connection, logger *log.Logger) {
	if announced {
		return
	}
	announced = true
	client, ok := conn.Client()
	if !ok {
		return
	}
	logger.Printf("connected as %s (team %d, slot %d), playing %s", client.ThisPlayer().Name, client.ThisPlayer().Team, client.ThisPlayer().Slot, client.ThisGame().Name)
	logger.Printf("seed %s, server %s, generator %s", client.SeedName(), client.ServerVersion(), client.GeneratorVersion())
	if err := client.Say("hello from archipelago-ping"); err != nil {
		logger.Printf("say: %v", err)
	}
}

func logEvent(logger *log.Logger, ev archipelago.Event) {
	switch ev.Kind {
	case archipelago.EventConnected:
		logger.Printf("event: connected")
	case archipelago.EventPrint:
		logger.Printf("event: print: %s", printText(ev.Print))
	case archipelago.EventReceivedItems:
		logger.Printf("event: received %d item(s) starting at index %d", len(ev.ReceivedItems.Items), ev.ReceivedItems.Index)
		for _, it := range ev.ReceivedItems.Items {
			logger.Printf("  + %s", it.String())
		}
	case archipelago.EventUpdated:
		logger.Printf("event: room updated (%d field(s) changed)", len(ev.Updated))
	case archipelago.EventBounce:
		b, _ := json.Marshal(ev.Bounce.Data)
		logger.Printf("event: bounce tags=%v data=%s", ev.Bounce.Tags, b)
	case archipelago.EventDeathLink:
		logger.Printf("event: death link from %s", ev.DeathLink.Source)
	case archipelago.EventKeyChanged:
		logger.Printf("event: key %q changed", ev.KeyChanged.Key)
	case archipelago.EventError:
		if ev.Err != nil {
			logger.Printf("event: error (fatal=%v): %v", ev.Err.IsFatal(), ev.Err)
		}
	}
}

func printText(p archipelago.PrintMessage) string {
	if p.Text != "" {
		return p.Text
	}
	s := ""
	for _, seg := range p.Segments {
		switch seg.Kind {
		case archipelago.SegmentPlayer:
			s += seg.Player.Alias
		case archipelago.SegmentItem:
			s += seg.Item.Item.Name
		case archipelago.SegmentLocation:
			s += seg.Location.Name
		default:
			s += seg.Text
		}
	}
	return s
}
