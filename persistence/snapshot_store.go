package persistence

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Bala432/order-matching-engine/engine"
	"github.com/Bala432/order-matching-engine/models"
)

// Snapshot is the parsed form of a book snapshot file: the cumulative
// trade count, the number of resting orders, and the aggregated levels
// per side in priority order.
type Snapshot struct {
	MatchedOrders uint64
	BookSize      int
	Bids          []models.LevelInfo
	Asks          []models.LevelInfo
}

// WriteSnapshot writes the book's aggregate state as a text snapshot:
//
//	matchedOrders,<n>
//	book_size,<n>
//	bids_levels
//	<price>,<qty>   (descending price)
//	asks_levels
//	<price>,<qty>   (ascending price)
func WriteSnapshot(path string, book *engine.OrderBook) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot %s: %w", path, err)
	}

	w := bufio.NewWriter(file)
	infos := book.GetOrderInfos()

	fmt.Fprintf(w, "matchedOrders,%d\n", book.GetMatchedOrders())
	fmt.Fprintf(w, "book_size,%d\n", book.Size())
	w.WriteString("bids_levels\n")
	for _, li := range infos.Bids {
		fmt.Fprintf(w, "%d,%d\n", li.Price, li.Quantity)
	}
	w.WriteString("asks_levels\n")
	for _, li := range infos.Asks {
		fmt.Fprintf(w, "%d,%d\n", li.Price, li.Quantity)
	}

	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("failed to flush snapshot %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot %s: %w", path, err)
	}
	return nil
}

// ReadSnapshot parses a snapshot file back into its structured form.
func ReadSnapshot(path string) (*Snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot %s: %w", path, err)
	}
	defer file.Close()

	snap := &Snapshot{}
	section := ""
	scanner := bufio.NewScanner(file)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "matchedOrders,"):
			v, err := strconv.ParseUint(strings.TrimPrefix(line, "matchedOrders,"), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("snapshot %s line %d: bad matchedOrders: %w", path, lineNo, err)
			}
			snap.MatchedOrders = v

		case strings.HasPrefix(line, "book_size,"):
			v, err := strconv.Atoi(strings.TrimPrefix(line, "book_size,"))
			if err != nil {
				return nil, fmt.Errorf("snapshot %s line %d: bad book_size: %w", path, lineNo, err)
			}
			snap.BookSize = v

		case line == "bids_levels":
			section = "bids"

		case line == "asks_levels":
			section = "asks"

		default:
			price, qty, err := parseLevelLine(line)
			if err != nil {
				return nil, fmt.Errorf("snapshot %s line %d: %w", path, lineNo, err)
			}
			info := models.LevelInfo{Price: price, Quantity: qty}
			switch section {
			case "bids":
				snap.Bids = append(snap.Bids, info)
			case "asks":
				snap.Asks = append(snap.Asks, info)
			default:
				return nil, fmt.Errorf("snapshot %s line %d: level outside a side section", path, lineNo)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}
	return snap, nil
}

func parseLevelLine(line string) (models.Price, models.Quantity, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("expected price,qty, got %q", line)
	}
	price, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad price %q: %w", fields[0], err)
	}
	qty, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad qty %q: %w", fields[1], err)
	}
	return models.Price(price), models.Quantity(qty), nil
}
