// Command vivsync is the desktop client: it extracts the roster from the
// portal and either uploads it to the sync service or writes a local ICS
// file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Belafone/VivSync/pkg/config"
	"github.com/Belafone/VivSync/pkg/ical"
	"github.com/Belafone/VivSync/pkg/log"
	"github.com/Belafone/VivSync/pkg/syncclient"
	"github.com/Belafone/VivSync/pkg/vivendi"
)

func main() {
	sync := flag.Bool("sync", false, "upload the roster to the sync service instead of writing a file")
	out := flag.String("out", "", "output path for the ICS file (default Dienstplan_<date>.ics)")
	expiry := flag.Int("expiry", 0, "days until the published calendar link expires")
	flag.Parse()

	if err := log.Init(false); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logging:", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg := config.FromEnv()
	if *expiry > 0 {
		cfg.ExpiryDays = *expiry
	}

	rep := vivendi.NewReporter(
		func(line string) { fmt.Println(line) },
		func(percent int) { fmt.Printf("[%3d%%]\n", percent) },
	)

	ctx := context.Background()
	dienste, err := vivendi.Extract(ctx, vivendi.Config{
		URL:          cfg.VivendiURL,
		Username:     cfg.Username,
		Password:     cfg.Password,
		WindowsLogin: cfg.WindowsLogin,
		Headless:     cfg.Headless,
		BrowserBin:   cfg.BrowserBin,
	}, rep)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Fehler:", err)
		os.Exit(1)
	}

	if *sync {
		client := syncclient.New(cfg.APIURL)
		result, err := client.Publish(ctx, dienste, cfg.Username, cfg.ExpiryDays)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Synchronisation fehlgeschlagen:", err)
			os.Exit(1)
		}
		fmt.Println("Kalender-URL:", result.IcalURL)
		fmt.Println("Gültig für:", result.ExpiresIn)
		return
	}

	path := *out
	if path == "" {
		path = "Dienstplan_" + time.Now().Format("2006-01-02") + ".ics"
	}
	if err := ical.WriteFile(dienste, path, func(line string) { fmt.Println(line) }); err != nil {
		fmt.Fprintln(os.Stderr, "Fehler beim Schreiben der Datei:", err)
		os.Exit(1)
	}
	fmt.Println("Kalenderdatei geschrieben:", path)
}
