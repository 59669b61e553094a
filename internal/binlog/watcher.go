package binlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-mysql-org/go-mysql/mysql"
	"github.com/go-mysql-org/go-mysql/replication"
	driver "github.com/go-sql-driver/mysql"

	"zenwallet/internal/config"
)

// Checkpoint is where a watcher resumes. GTID wins over Position when set.
type Checkpoint struct {
	GTID     string         `json:"gtid,omitempty"`
	Position mysql.Position `json:"position"`
}

func (c Checkpoint) IsZero() bool {
	return c.GTID == "" && c.Position.Name == ""
}

// CheckpointStore keeps the last committed checkpoint between runs.
type CheckpointStore interface {
	Load() (Checkpoint, error)
	Save(Checkpoint) error
}

// FileCheckpoint stores the checkpoint as JSON in a file. A missing file
// loads as the zero checkpoint.
type FileCheckpoint string

func (f FileCheckpoint) Load() (Checkpoint, error) {
	raw, err := os.ReadFile(string(f))
	if errors.Is(err, os.ErrNotExist) {
		return Checkpoint{}, nil
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("binlog: read checkpoint: %w", err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(raw, &cp); err != nil {
		return Checkpoint{}, fmt.Errorf("binlog: decode checkpoint: %w", err)
	}
	return cp, nil
}

func (f FileCheckpoint) Save(cp Checkpoint) error {
	raw, err := json.Marshal(cp)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(string(f)), 0o755); err != nil {
		return fmt.Errorf("binlog: checkpoint dir: %w", err)
	}
	tmp := string(f) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("binlog: write checkpoint: %w", err)
	}
	return os.Rename(tmp, string(f))
}

// Handler receives each decoded change. An error stops the watcher before
// the enclosing transaction is checkpointed.
type Handler func(ctx context.Context, c Change) error

// Watcher streams row changes on the ledger tables from a MySQL primary.
type Watcher struct {
	cfg         config.BinlogConfig
	logger      *slog.Logger
	checkpoints CheckpointStore
}

func NewWatcher(cfg config.BinlogConfig, checkpoints CheckpointStore, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{cfg: cfg, logger: logger, checkpoints: checkpoints}
}

func (w *Watcher) syncerConfig() replication.BinlogSyncerConfig {
	return replication.BinlogSyncerConfig{
		ServerID:   w.cfg.ServerID, // unique per replica
		Flavor:     mysql.MySQLFlavor,
		Host:       w.cfg.Host,
		Port:       w.cfg.Port,
		User:       w.cfg.User,
		Password:   w.cfg.Password,
		UseDecimal: true,
	}
}

// Run streams until ctx is cancelled. It resumes from the stored checkpoint,
// or from the primary's current state when there is none, and stores a new
// checkpoint after every committed transaction.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	from, err := w.checkpoints.Load()
	if err != nil {
		return err
	}
	if from.IsZero() {
		if from, err = w.current(ctx); err != nil {
			return err
		}
		w.logger.Info("no saved checkpoint, starting from primary", "gtid", from.GTID, "file", from.Position.Name, "pos", from.Position.Pos)
	}

	syncer := replication.NewBinlogSyncer(w.syncerConfig())
	defer syncer.Close()

	var streamer *replication.BinlogStreamer
	if from.GTID != "" {
		gset, perr := mysql.ParseGTIDSet(mysql.MySQLFlavor, from.GTID)
		if perr != nil {
			return fmt.Errorf("binlog: invalid GTID set %q: %w", from.GTID, perr)
		}
		streamer, err = syncer.StartSyncGTID(gset)
	} else {
		streamer, err = syncer.StartSync(from.Position)
	}
	if err != nil {
		return fmt.Errorf("binlog: start sync: %w", err)
	}
	w.logger.Info("binlog streamer started", "host", w.cfg.Host, "schema", w.cfg.Schema)

	pos := from.Position
	for {
		ev, err := streamer.GetEvent(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				w.logger.Info("binlog streamer stopped")
				return nil
			}
			return fmt.Errorf("binlog: get event: %w", err)
		}

		switch e := ev.Event.(type) {
		case *replication.RotateEvent:
			pos = mysql.Position{Name: string(e.NextLogName), Pos: uint32(e.Position)}
			w.logger.Debug("rotated binlog", "file", pos.Name, "pos", pos.Pos)

		case *replication.QueryEvent:
			w.logger.Debug("query event", "schema", string(e.Schema), "query", string(e.Query))

		case *replication.RowsEvent:
			for _, c := range Changes(ev.Header.EventType, e, w.cfg.Schema) {
				if err := handle(ctx, c); err != nil {
					return fmt.Errorf("binlog: handle %s %s.%s: %w", c.Action, c.Schema, c.Table, err)
				}
			}

		case *replication.XIDEvent:
			pos.Pos = ev.Header.LogPos
			cp := Checkpoint{Position: pos}
			if e.GSet != nil {
				cp.GTID = e.GSet.String()
			}
			if err := w.checkpoints.Save(cp); err != nil {
				return err
			}
		}
	}
}

// current reads the primary's executed GTID set, or its binlog position when
// GTID mode is off.
func (w *Watcher) current(ctx context.Context) (Checkpoint, error) {
	dc := driver.NewConfig()
	dc.User = w.cfg.User
	dc.Passwd = w.cfg.Password
	dc.Net = "tcp"
	dc.Addr = net.JoinHostPort(w.cfg.Host, strconv.Itoa(int(w.cfg.Port)))

	db, err := sql.Open("mysql", dc.FormatDSN())
	if err != nil {
		return Checkpoint{}, fmt.Errorf("binlog: open primary: %w", err)
	}
	defer db.Close()

	var gtid string
	if err := db.QueryRowContext(ctx, "SELECT @@global.gtid_executed").Scan(&gtid); err != nil {
		return Checkpoint{}, fmt.Errorf("binlog: read gtid_executed: %w", err)
	}
	if gtid != "" {
		return Checkpoint{GTID: gtid}, nil
	}

	var file string
	var position uint32
	err = db.QueryRowContext(ctx, "SHOW MASTER STATUS").Scan(&file, &position, new(string), new(string), new(string))
	if err != nil {
		return Checkpoint{}, fmt.Errorf("binlog: read master status: %w", err)
	}
	return Checkpoint{Position: mysql.Position{Name: file, Pos: position}}, nil
}
