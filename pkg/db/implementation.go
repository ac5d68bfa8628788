package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/acorn-io/kids-market/pkg/model"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const (
	maxJoinCodeAttempts = 100
	defaultPollInterval = 5 * time.Second
)

func (Account) TableName() string { return "accounts" }
func (Admin) TableName() string   { return "admins" }
func (Child) TableName() string   { return "children" }
func (Task) TableName() string    { return "tasks" }

type database struct {
	db           *gorm.DB
	watchers     *watchHub
	pollInterval time.Duration
}

type Option func(*database)

// WithPollInterval sets how often live queries re-read the store to pick up
// writes made by other processes. Zero disables polling.
func WithPollInterval(interval time.Duration) Option {
	return func(d *database) {
		d.pollInterval = interval
	}
}

// New creates a new database connection
func New(ctx context.Context, dialect string, dsn string, config *gorm.Config, opts ...Option) (Database, error) {
	if config == nil {
		config = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	}

	var dialector gorm.Dialector
	switch dialect {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", dialect)
	}

	db, err := gorm.Open(dialector, config)
	if err != nil {
		return nil, err
	}

	if dialect == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// sqlite only allows one writer at a time
		sqlDB.SetMaxOpenConns(1)
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, err
		}
	}

	db = db.WithContext(ctx)

	if err := db.AutoMigrate(
		&Account{},
		&Admin{},
		&Child{},
		&Task{},
	); err != nil {
		return nil, err
	}

	d := &database{
		db:           db,
		watchers:     newWatchHub(),
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (d *database) CreateAccount(account Account) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if account.Email != "" {
			err := tx.Where("email = ?", account.Email).Take(&Account{}).Error
			if err == nil {
				return ErrEmailTaken
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		if err := tx.Create(&account).Error; err != nil {
			if account.Email != "" && isDuplicateKey(err) {
				return ErrEmailTaken
			}
			return err
		}
		return nil
	})
}

func (d *database) GetAccount(uid string) (Account, error) {
	var account Account
	err := d.db.Where("uid = ?", uid).Take(&account).Error
	return account, notFound(err)
}

func (d *database) GetAccountByEmail(email string) (Account, error) {
	var account Account
	err := d.db.Where("email = ?", email).Take(&account).Error
	return account, notFound(err)
}

func (d *database) UpdateDisplayName(uid, displayName string) error {
	sql := d.db.Model(&Account{}).Where("uid = ?", uid).Update("display_name", displayName)
	if sql.Error != nil {
		return sql.Error
	}
	if sql.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *database) DeleteAccount(uid string) error {
	sql := d.db.Where("uid = ?", uid).Delete(&Account{})
	if sql.Error != nil {
		return sql.Error
	}
	if sql.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeStaleAnonymousAccounts removes anonymous accounts older than the max
// age that never linked themselves to an admin.
func (d *database) PurgeStaleAnonymousAccounts(maxAgeSeconds int64) (int64, error) {
	cutoff := time.Now().Add(-time.Second * time.Duration(maxAgeSeconds))
	sql := d.db.Where("anonymous = ? AND created_at < ? AND uid NOT IN (SELECT uid FROM children)", true, cutoff).
		Delete(&Account{})
	return sql.RowsAffected, sql.Error
}

// CreateAdmin writes the admin record with a join code no other admin holds.
// Codes come from newJoinCode and are retried until one is free.
func (d *database) CreateAdmin(admin model.AdminRecord, newJoinCode func() string) (model.AdminRecord, error) {
	err := d.db.Transaction(func(tx *gorm.DB) error {
		var code string
		for i := 0; i < maxJoinCodeAttempts; i++ {
			c := newJoinCode()
			sql := tx.Where("join_code = ?", c).Take(&Admin{})
			if sql.Error != nil {
				if errors.Is(sql.Error, gorm.ErrRecordNotFound) {
					code = c
					break
				}
				logrus.Warnf("Error while finding unique join code: %v", sql.Error)
			}
		}
		if code == "" {
			return ErrJoinCodeExhausted
		}

		row := Admin{
			UID:         admin.UID,
			Email:       admin.Email,
			DisplayName: admin.DisplayName,
			JoinCode:    code,
		}
		sql := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "uid"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "display_name", "join_code"}),
		}).Create(&row)
		if sql.Error != nil {
			return sql.Error
		}

		admin.JoinCode = code
		return nil
	})

	return admin, err
}

func (d *database) GetAdmin(uid string) (model.AdminRecord, error) {
	var admin Admin
	if err := d.db.Where("uid = ?", uid).Take(&admin).Error; err != nil {
		return model.AdminRecord{}, notFound(err)
	}
	return toAdminRecord(admin), nil
}

// ListAdmins returns every admin ordered by creation time, so scans over the
// result are deterministic.
func (d *database) ListAdmins() ([]model.AdminRecord, error) {
	var admins []Admin
	if err := d.db.Order("created_at, uid").Find(&admins).Error; err != nil {
		return nil, err
	}

	records := make([]model.AdminRecord, 0, len(admins))
	for _, a := range admins {
		records = append(records, toAdminRecord(a))
	}
	return records, nil
}

func (d *database) DeleteAdmin(uid string) error {
	return d.db.Where("uid = ?", uid).Delete(&Admin{}).Error
}

// SaveChild writes the whole child value: name, admin and the task list are
// replaced by what is passed in.
func (d *database) SaveChild(child model.ChildRecord) error {
	err := d.db.Transaction(func(tx *gorm.DB) error {
		row := Child{
			UID:      child.UID,
			Name:     child.Name,
			AdminUID: child.AdminUID,
		}
		sql := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "uid"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "admin_uid", "updated_at"}),
		}).Create(&row)
		if sql.Error != nil {
			return sql.Error
		}

		if err := tx.Where("child_uid = ?", child.UID).Delete(&Task{}).Error; err != nil {
			return err
		}
		if len(child.Tasks) == 0 {
			return nil
		}

		tasks := make([]Task, 0, len(child.Tasks))
		for _, t := range child.Tasks {
			tasks = append(tasks, fromTaskRecord(child.UID, t))
		}
		return tx.Create(&tasks).Error
	})
	if err != nil {
		return err
	}

	d.watchers.kick()
	return nil
}

func (d *database) GetChild(uid string) (model.ChildRecord, error) {
	var child Child
	if err := d.children().Where("uid = ?", uid).Take(&child).Error; err != nil {
		return model.ChildRecord{}, notFound(err)
	}
	return toChildRecord(child), nil
}

func (d *database) ListChildren() ([]model.ChildRecord, error) {
	var children []Child
	if err := d.children().Order("created_at, uid").Find(&children).Error; err != nil {
		return nil, err
	}
	return toChildRecords(children), nil
}

func (d *database) ListChildrenByAdmin(adminUID string) ([]model.ChildRecord, error) {
	var children []Child
	sql := d.children().Where("admin_uid = ?", adminUID).Order("created_at, uid").Find(&children)
	if sql.Error != nil {
		return nil, sql.Error
	}
	return toChildRecords(children), nil
}

func (d *database) DeleteChild(uid string) error {
	err := d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("child_uid = ?", uid).Delete(&Task{}).Error; err != nil {
			return err
		}
		return tx.Where("uid = ?", uid).Delete(&Child{}).Error
	})
	if err != nil {
		return err
	}

	d.watchers.kick()
	return nil
}

// PurgeOrphanedChildren deletes children whose admin record no longer exists.
func (d *database) PurgeOrphanedChildren() (int64, error) {
	var deleted int64
	err := d.db.Transaction(func(tx *gorm.DB) error {
		var orphans []string
		sql := tx.Model(&Child{}).
			Where("admin_uid <> ? AND admin_uid NOT IN (SELECT uid FROM admins)", "").
			Pluck("uid", &orphans)
		if sql.Error != nil {
			return sql.Error
		}
		if len(orphans) == 0 {
			return nil
		}

		if err := tx.Where("child_uid IN ?", orphans).Delete(&Task{}).Error; err != nil {
			return err
		}
		sql = tx.Where("uid IN ?", orphans).Delete(&Child{})
		deleted = sql.RowsAffected
		return sql.Error
	})
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		d.watchers.kick()
	}
	return deleted, nil
}

func (d *database) SaveTask(childUID string, task model.TaskRecord) (model.TaskRecord, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	err := d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("uid = ?", childUID).Take(&Child{}).Error; err != nil {
			return notFound(err)
		}

		row := fromTaskRecord(childUID, task)
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "complete"}),
		}).Create(&row).Error
	})
	if err != nil {
		return model.TaskRecord{}, err
	}

	d.watchers.kick()
	return task, nil
}

func (d *database) DeleteTask(childUID, taskID string) error {
	sql := d.db.Where("id = ? AND child_uid = ?", taskID, childUID).Delete(&Task{})
	if sql.Error != nil {
		return sql.Error
	}
	if sql.RowsAffected == 0 {
		return ErrNotFound
	}

	d.watchers.kick()
	return nil
}

func (d *database) Close() error {
	d.watchers.closeAll()

	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// children is the base query for child reads, with tasks loaded in a stable order.
func (d *database) children() *gorm.DB {
	return d.db.Preload("Tasks", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("created_at, id")
	})
}

func toAdminRecord(a Admin) model.AdminRecord {
	return model.AdminRecord{
		UID:         a.UID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		JoinCode:    a.JoinCode,
	}
}

func toChildRecord(c Child) model.ChildRecord {
	record := model.ChildRecord{
		UID:      c.UID,
		Name:     c.Name,
		AdminUID: c.AdminUID,
	}
	for _, t := range c.Tasks {
		record.Tasks = append(record.Tasks, model.TaskRecord{
			ID:         t.ID,
			Title:      t.Title,
			IsComplete: model.ParseComplete(t.Complete),
		})
	}
	return record
}

func toChildRecords(children []Child) []model.ChildRecord {
	records := make([]model.ChildRecord, 0, len(children))
	for _, c := range children {
		records = append(records, toChildRecord(c))
	}
	return records
}

func fromTaskRecord(childUID string, t model.TaskRecord) Task {
	id := t.ID
	if id == "" {
		id = uuid.NewString()
	}
	return Task{
		ID:       id,
		ChildUID: childUID,
		Title:    t.Title,
		Complete: strconv.FormatBool(t.IsComplete),
	}
}
