package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/cliploader/cliploader/app"
	"github.com/cliploader/cliploader/clip"
	"github.com/cliploader/cliploader/dataset"
)

func main() {
	addr := flag.String("addr", ":8080", "bind address")
	configPath := flag.String("config", "config.toml", "path to config file")
	mode := flag.String("mode", "train", "dataset split (train, val, or test)")
	journalPath := flag.String("journal", "cliploader.sqlite3", "decode-failure journal; empty disables")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	clip.SeedRand()

	cfg, err := dataset.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}
	ds, err := dataset.NewDataset(cfg, *mode)
	if err != nil {
		log.Fatalf("error constructing dataset: %v", err)
	}

	var journal *app.Journal
	if *journalPath != "" {
		journal, err = app.NewJournal(*journalPath)
		if err != nil {
			log.Fatalf("error opening journal: %v", err)
		}
		defer journal.Close()
		ds.SetJournal(journal)
		log.Printf("[main] journal session %s", journal.Session())
	}

	app.Setup(ds, journal)
	log.Printf("starting on %s", *addr)
	if err := http.ListenAndServe(*addr, app.Router); err != nil {
		panic(err)
	}
}
