// ABOUTME: Entry point for the mix preview listener
// ABOUTME: Finds a running mixer over mDNS (or --addr) and plays its preview stream
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/resonate-mixer/internal/discovery"
	"github.com/Resonate-Protocol/resonate-mixer/internal/preview"
	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio/output"
)

var (
	addr    = flag.String("addr", "", "Preview server host:port (default: discover via mDNS)")
	logFile = flag.String("log-file", "resonate-listen.log", "Log file path")
	wait    = flag.Duration("wait", 10*time.Second, "How long to wait for mDNS discovery")
	latency = flag.Duration("latency", 0, "Audio device buffer latency (0 = driver default)")
	volume  = flag.Int("volume", 100, "Playback volume (0-100)")
	useNull = flag.Bool("null", false, "Discard audio instead of playing it")
)

func main() {
	flag.Parse()

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()
	log.SetOutput(io.MultiWriter(os.Stdout, f))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	url, err := resolve(ctx)
	if err != nil {
		log.Fatalf("No preview server: %v", err)
	}

	var out output.Output
	if *useNull {
		out = output.NewNull(0)
	} else {
		oto := output.NewOto(0, *latency)
		oto.SetVolume(*volume)
		out = oto
	}
	defer out.Close()

	l := preview.NewListener(url, out)
	if err := l.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Listener error: %v", err)
	}

	log.Printf("Received %d frames (%d bytes)", l.Frames(), l.Received())
}

// resolve returns the preview URL from --addr or the first mDNS answer
func resolve(ctx context.Context) (string, error) {
	if *addr != "" {
		return fmt.Sprintf("ws://%s%s", *addr, preview.Path), nil
	}

	mgr := discovery.NewManager(discovery.Config{})
	defer mgr.Stop()
	if err := mgr.Browse(); err != nil {
		return "", err
	}

	log.Printf("Searching for %s for up to %s", discovery.ServiceType, *wait)
	select {
	case info := <-mgr.Previews():
		log.Printf("Found %s (%s %s)", info.Name, info.Manufacturer, info.Version)
		return info.URL(), nil
	case <-time.After(*wait):
		return "", fmt.Errorf("nothing found after %s", *wait)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
