// Package archive mirrors session history into SQLite so it outlives the
// process. The in-memory session store stays authoritative; the archive is
// write-behind and search-only.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/astraterm/astraterm/internal/domain/session"
)

// DefaultSearchLimit applies when Search is called with limit <= 0
const DefaultSearchLimit = 50

// Archive stores history entries with GORM
type Archive struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open opens or creates the database at path
func Open(path string, log *zap.Logger) (*Archive, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("archive")

	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
		Logger:  &gormLogger{log: log, level: logger.Warn},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")
	db.Exec("PRAGMA foreign_keys=ON")

	if err := db.AutoMigrate(&SessionModel{}, &EntryModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.Info("History archive opened", zap.String("path", path))
	return &Archive{db: db, logger: log}, nil
}

// RecordSession stores a session row. Existing rows are left untouched.
func (a *Archive) RecordSession(ctx context.Context, id string, createdAt time.Time) error {
	row := SessionModel{ID: id, CreatedAt: createdAt.UTC()}
	err := a.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("record session %s: %w", id, err)
	}
	return nil
}

// Record appends one history entry, creating the session row on first use
func (a *Archive) Record(ctx context.Context, sessionID string, entry session.Entry) error {
	executedAt := entry.Timestamp
	if executedAt.IsZero() {
		executedAt = time.Now()
	}

	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&SessionModel{ID: sessionID, CreatedAt: executedAt.UTC()}).Error
		if err != nil {
			return fmt.Errorf("record session %s: %w", sessionID, err)
		}

		row := EntryModel{
			SessionID:  sessionID,
			Command:    entry.Command,
			Output:     entry.Output,
			Error:      entry.Error,
			ExitCode:   entry.ExitCode,
			ExecutedAt: executedAt.UTC(),
		}
		if err := tx.Omit("Session").Create(&row).Error; err != nil {
			return fmt.Errorf("record entry: %w", err)
		}
		return nil
	})
}

// Search returns the newest entries whose command contains query,
// case-insensitively. An empty query matches everything.
func (a *Archive) Search(ctx context.Context, query string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	q := a.db.WithContext(ctx).Model(&EntryModel{})
	if query = strings.TrimSpace(query); query != "" {
		q = q.Where("LOWER(command) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(query))+"%")
	}

	var rows []EntryModel
	if err := q.Order("executed_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("search archive: %w", err)
	}
	return toRecords(rows), nil
}

// ForSession returns every archived entry for id in execution order
func (a *Archive) ForSession(ctx context.Context, id string) ([]Record, error) {
	var rows []EntryModel
	err := a.db.WithContext(ctx).
		Where("session_id = ?", id).
		Order("executed_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return toRecords(rows), nil
}

// Close releases the underlying connection pool
func (a *Archive) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toRecords(rows []EntryModel) []Record {
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = r.toRecord()
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// gormLogger routes GORM diagnostics to zap
type gormLogger struct {
	log   *zap.Logger
	level logger.LogLevel
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &gormLogger{log: l.log, level: level}
}

func (l *gormLogger) Info(_ context.Context, msg string, data ...any) {
	if l.level >= logger.Info {
		l.log.Info(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, data ...any) {
	if l.level >= logger.Warn {
		l.log.Warn(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, data ...any) {
	if l.level >= logger.Error {
		l.log.Error(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		sql, rows := fc()
		l.log.Error("Query failed", zap.Error(err), zap.Duration("duration", elapsed), zap.String("sql", sql), zap.Int64("rows", rows))
	case elapsed > 200*time.Millisecond && l.level >= logger.Warn:
		sql, rows := fc()
		l.log.Warn("Slow query", zap.Duration("duration", elapsed), zap.String("sql", sql), zap.Int64("rows", rows))
	case l.level >= logger.Info:
		sql, rows := fc()
		l.log.Debug("Query", zap.Duration("duration", elapsed), zap.String("sql", sql), zap.Int64("rows", rows))
	}
}
