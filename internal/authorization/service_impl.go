// Package authorization enforces role-based access over the store's
// resources. Roles live on the users table; casbin holds the
// role→capability policies and the user→role grouping links.
package authorization

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectCatalog = "catalog"
	ObjectBill    = "bill"
	ObjectLoyalty = "loyalty"
	ObjectReport  = "report"
	ObjectArchive = "archive"
	ObjectUser    = "user"
)

const (
	ActionCatalogView   = "catalog.view"
	ActionCatalogManage = "catalog.manage"

	ActionBillCreate = "bill.create"
	ActionBillView   = "bill.view"

	ActionLoyaltyView = "loyalty.view"

	ActionReportView = "report.view"

	ActionArchiveView   = "archive.view"
	ActionArchiveExport = "archive.export"

	ActionUserManage = "user.manage"
)

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidActor  = errors.New("invalid actor")
	ErrInvalidObject = errors.New("invalid object")
	ErrInvalidAction = errors.New("invalid action")
)

type Service interface {
	Authorize(ctx context.Context, userID snowflake.ID, object, action string) error
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, userID snowflake.ID, object, action string) error {
	if userID == 0 {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	role, err := s.roleForUser(ctx, userID)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("user:%s", userID.String())
	roleName := fmt.Sprintf("role:%s", strings.ToLower(role))
	if err := s.ensureGrouping(subject, roleName); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Warn("authorization denied",
			zap.String("subject", subject),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) roleForUser(ctx context.Context, userID snowflake.ID) (string, error) {
	var row struct {
		Role string `gorm:"column:role"`
	}
	if err := s.db.WithContext(ctx).Raw(
		`SELECT role FROM users WHERE id = ? LIMIT 1`,
		userID,
	).Scan(&row).Error; err != nil {
		return "", err
	}

	role := strings.TrimSpace(row.Role)
	if role == "" {
		return "", ErrForbidden
	}
	return role, nil
}

// ensureGrouping keeps the casbin grouping link in step with the users
// table, so a role change takes effect on the next request.
func (s *ServiceImpl) ensureGrouping(subject, roleName string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName)
	return err
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Staff run the register.
		{"role:staff", ObjectCatalog, ActionCatalogView},
		{"role:staff", ObjectBill, ActionBillCreate},
		{"role:staff", ObjectBill, ActionBillView},
		{"role:staff", ObjectLoyalty, ActionLoyaltyView},

		// Admins get everything.
		{"role:admin", ObjectCatalog, ActionCatalogView},
		{"role:admin", ObjectCatalog, ActionCatalogManage},
		{"role:admin", ObjectBill, ActionBillCreate},
		{"role:admin", ObjectBill, ActionBillView},
		{"role:admin", ObjectLoyalty, ActionLoyaltyView},
		{"role:admin", ObjectReport, ActionReportView},
		{"role:admin", ObjectArchive, ActionArchiveView},
		{"role:admin", ObjectArchive, ActionArchiveExport},
		{"role:admin", ObjectUser, ActionUserManage},
	}

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}

var Module = fx.Module("authorization",
	fx.Provide(NewEnforcer),
	fx.Provide(NewService),
)
