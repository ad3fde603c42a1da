package backup

import (
	"AapdaMitra/pkg/logger"
	"AapdaMitra/pkg/scheduler"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const filePrefix = "aapda_backup_"

type Config struct {
	Driver   string
	Dir      string
	Schedule string
	// Keep is the number of newest backups retained; 0 keeps all.
	Keep int
}

// Backup snapshots the store database into Dir.
type Backup struct {
	db  *gorm.DB
	cfg Config
	now func() time.Time
}

func New(db *gorm.DB, cfg Config) *Backup {
	return &Backup{db: db, cfg: cfg, now: time.Now}
}

// Register 注册定时备份任务
func (b *Backup) Register(cr *scheduler.Cron) error {
	_, err := cr.AddWithCtx(b.cfg.Schedule, func(ctx context.Context) {
		dst, err := b.Execute(ctx)
		if err != nil {
			logger.Warn("backup failed", zap.Error(err))
			return
		}
		logger.Info("backup completed", zap.String("path", dst))
	})
	return err
}

// Execute backs up the database and returns the written file.
func (b *Backup) Execute(ctx context.Context) (string, error) {
	switch strings.ToLower(b.cfg.Driver) {
	case "", "sqlite":
		dst := filepath.Join(b.cfg.Dir, fmt.Sprintf("%s%s.db", filePrefix, b.now().Format("20060102_150405")))
		if err := BackupSQLiteDatabase(ctx, b.db, dst); err != nil {
			return "", err
		}
		if err := b.prune(); err != nil {
			logger.Warn("backup prune failed", zap.Error(err))
		}
		return dst, nil
	default:
		return "", fmt.Errorf("unsupported DB_DRIVER for backup: %s", b.cfg.Driver)
	}
}

// BackupSQLiteDatabase writes a consistent copy of the open database to dst.
func BackupSQLiteDatabase(ctx context.Context, db *gorm.DB, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("backup file already exists: %s", dst)
	}
	if err := db.WithContext(ctx).Exec("VACUUM INTO ?", dst).Error; err != nil {
		return fmt.Errorf("failed to backup SQLite database: %w", err)
	}
	return nil
}

func (b *Backup) prune() error {
	if b.cfg.Keep <= 0 {
		return nil
	}
	files, err := filepath.Glob(filepath.Join(b.cfg.Dir, filePrefix+"*.db"))
	if err != nil {
		return err
	}
	if len(files) <= b.cfg.Keep {
		return nil
	}
	// timestamped names sort chronologically
	sort.Strings(files)
	for _, f := range files[:len(files)-b.cfg.Keep] {
		if err := os.Remove(f); err != nil {
			return err
		}
	}
	return nil
}
