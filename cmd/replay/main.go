package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Bala432/order-matching-engine/engine"
	"github.com/Bala432/order-matching-engine/logging"
	"github.com/Bala432/order-matching-engine/persistence"
	"github.com/Bala432/order-matching-engine/replay"
)

func main() {
	trace := flag.String("trace", "", "operation trace to replay (required)")
	eventsOut := flag.String("events", "", "write the replayed event log to this file")
	snapshotOut := flag.String("snapshot", "", "write the final book snapshot to this file")
	flag.Parse()

	logging.InitLogger()

	if *trace == "" {
		fmt.Fprintln(os.Stderr, "usage: replay -trace <file> [-events <file>] [-snapshot <file>]")
		os.Exit(2)
	}

	book := engine.NewOrderBook()

	var events *persistence.EventWriter
	if *eventsOut != "" {
		var err error
		events, err = persistence.NewEventWriter(*eventsOut)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		book.SetObserver(events.Observer())
		book.EnableEvents(true)
	}

	stats, err := replay.NewReplayer(nil).ReplayFile(*trace, book)
	if err != nil {
		if events != nil {
			events.Close()
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	book.SetObserver(nil)
	if events != nil {
		if err := events.Close(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	if *snapshotOut != "" {
		if err := persistence.WriteSnapshot(*snapshotOut, book); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	fmt.Printf("applied %d ops (%d adds, %d cancels, %d modifies, %d matches), skipped %d\n",
		stats.Applied, stats.Adds, stats.Cancels, stats.Modifies, stats.Matches, stats.Skipped)
	fmt.Printf("book size %d, trades %d, best bid %d, best ask %d\n",
		book.Size(), book.GetMatchedOrders(), book.GetBestBidPrice(), book.GetBestAskPrice())
}
