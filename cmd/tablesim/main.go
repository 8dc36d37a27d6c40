// tablesim runs a self-playing table: it seats a handful of scripted
// players, lets the engine deal, and drives every turn with a simple
// check-or-call policy until the requested number of hands has finished.
// Snapshots land in SQLite so the resulting session can be inspected.
package main

import (
	"fmt"
	"os"

	"github.com/decred/slog"

	"github.com/felttable/holdem/internal/config"
	"github.com/felttable/holdem/pkg/persist"
	"github.com/felttable/holdem/pkg/poker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tablesim: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	backend := slog.NewBackend(os.Stderr)
	log := backend.Logger("SIM")
	level, ok := slog.LevelFromString(cfg.LogLevel)
	if !ok {
		return fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}
	log.SetLevel(level)
	tableLog := backend.Logger("TABL")
	tableLog.SetLevel(level)

	sink, err := persist.NewSQLiteSink(cfg.DBPath, backend.Logger("PRST"))
	if err != nil {
		return err
	}
	defer sink.Close()

	events := make(chan poker.Event, 256)

	table := poker.NewTable(poker.TableConfig{
		ID:             cfg.TableID,
		Log:            tableLog,
		MaxSeats:       cfg.MaxSeats,
		SmallBlind:     cfg.SmallBlind,
		BigBlind:       cfg.BigBlind,
		TimeBank:       cfg.TimeBank,
		AutoStartDelay: cfg.AutoStartDelay,
		Seed:           cfg.SimSeed,
	})
	table.SetNotificationSink(poker.NewChannelSink(events))
	table.SetPersistenceSink(sink)

	for i := 0; i < cfg.SimSeats; i++ {
		id := fmt.Sprintf("bot-%d", i+1)
		if _, err := table.SeatPlayer(id, id, cfg.SimBuyIn); err != nil {
			return err
		}
	}
	if err := table.StartGame(); err != nil {
		return err
	}

	handsPlayed := 0
	for ev := range events {
		switch ev.Type {
		case poker.EventTurnStarted:
			// Passive bots: check when possible, otherwise call down.
			action := poker.Check()
			if ev.Amount > 0 {
				action = poker.Call()
			}
			if err := table.HandleAction(ev.PlayerID, action); err != nil {
				// A call the stack cannot cover becomes a shove.
				if err := table.HandleAction(ev.PlayerID, poker.AllIn()); err != nil {
					log.Warnf("%s action rejected: %v", ev.PlayerID, err)
				}
			}

		case poker.EventHandEnded:
			handsPlayed++
			log.Infof("hand %d/%d finished, pot %d", handsPlayed, cfg.SimHands, ev.Amount)
			if handsPlayed >= cfg.SimHands {
				report(log, table, sink)
				return nil
			}

		case poker.EventEnteredWaiting:
			log.Infof("table entered waiting state after %d hands", handsPlayed)
			report(log, table, sink)
			return nil
		}
	}
	return nil
}

func report(log slog.Logger, table *poker.Table, sink *persist.SQLiteSink) {
	snap := table.Snapshot()
	for _, seat := range snap.Seats {
		log.Infof("seat %d (%s): %d chips", seat.Seat, seat.ID, seat.Stack)
	}
	if n, err := sink.SnapshotCount(snap.TableID); err == nil {
		log.Infof("persisted %d snapshots for table %s", n, snap.TableID)
	}
}
