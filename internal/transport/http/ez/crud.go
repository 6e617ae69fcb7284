package ez

import (
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"carpool/internal/domain"
	resp "carpool/internal/transport/http/response"
	"carpool/pkg/utils"
)

// Hook
type CrudHooks[T any] struct {
	BeforeCreate func(c *gin.Context, m *T) error
	BeforeUpdate func(c *gin.Context, m *T) error
	ScopeList    func(c *gin.Context, q *gorm.DB) *gorm.DB // 自定义筛选/排序
	AfterGet     func(c *gin.Context, m *T)
}

type CrudConfig[T any] struct {
	DB    *gorm.DB
	Group *gin.RouterGroup // 已鉴权分组（能拿 userId）
	Path  string
	New   func() *T

	Hooks CrudHooks[T]

	AllowCreate bool
	AllowList   bool
	AllowGet    bool
	AllowUpdate bool
	AllowDelete bool

	IDField    string // 默认 "ID"
	OwnerField string // 默认优先 "OwnerID"，其次 "UserID"/"UID"

	// 非空时删除改为置位该 bool 字段，列表/详情/更新自动排除已删除
	SoftDeleteField string // 例如 "IsDeleted"

	IDGen func() string // 默认 utils.NewID

	// 列表排序，为空则按 ID DESC
	OrderBy string // 例如 "created_at DESC"
}

// 反射 & 工具
func (c *CrudConfig[T]) idFieldCandidates() []string {
	if c.IDField != "" {
		return []string{c.IDField, "ID", "Id"}
	}
	return []string{"ID", "Id"}
}

func (c *CrudConfig[T]) ownerFieldCandidates() []string {
	if c.OwnerField != "" {
		return []string{c.OwnerField, "OwnerID", "UserID", "UID"}
	}
	return []string{"OwnerID", "UserID", "UID"}
}

func fieldByName(obj any, candidates []string, kind reflect.Kind) (reflect.Value, bool) {
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Ptr {
		return reflect.Value{}, false
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	for _, cand := range candidates {
		f, ok := v.Type().FieldByName(cand)
		// 未导出字段跳过
		if !ok || f.PkgPath != "" {
			continue
		}
		fv := v.FieldByIndex(f.Index)
		if fv.Kind() == kind && fv.CanSet() {
			return fv, true
		}
	}
	return reflect.Value{}, false
}

func readStringField(obj any, candidates []string) (string, bool) {
	fv, ok := fieldByName(obj, candidates, reflect.String)
	if !ok {
		return "", false
	}
	return fv.String(), true
}

func writeStringField(obj any, candidates []string, val string) bool {
	fv, ok := fieldByName(obj, candidates, reflect.String)
	if ok {
		fv.SetString(val)
	}
	return ok
}

func writeBoolField(obj any, name string, val bool) bool {
	fv, ok := fieldByName(obj, []string{name}, reflect.Bool)
	if ok {
		fv.SetBool(val)
	}
	return ok
}

func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}

func isDupKey(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}

func writeErr(c *gin.Context, err error) {
	if isDupKey(err) {
		resp.Fail(c, domain.ErrDuplicateEntity)
		return
	}
	resp.Fail(c, err)
}

// Crud 注册归属于当前用户的资源接口（无需模型实现任何接口）
func Crud[T any](cfg CrudConfig[T]) {
	// 默认放开所有操作
	if !cfg.AllowCreate && !cfg.AllowGet && !cfg.AllowList && !cfg.AllowUpdate && !cfg.AllowDelete {
		cfg.AllowCreate, cfg.AllowList, cfg.AllowGet, cfg.AllowUpdate, cfg.AllowDelete = true, true, true, true, true
	}
	if cfg.IDGen == nil {
		cfg.IDGen = utils.NewID
	}

	idFieldNames := cfg.idFieldCandidates()
	ownerFieldNames := cfg.ownerFieldCandidates()
	column := func(field string) string { return cfg.DB.NamingStrategy.ColumnName("", field) }

	// 归属 + 未删除
	scoped := func(c *gin.Context, uid, id string) *gorm.DB {
		filter := cfg.New()
		_ = writeStringField(filter, ownerFieldNames, uid)
		if id != "" {
			_ = writeStringField(filter, idFieldNames, id)
		}
		q := cfg.DB.WithContext(c).Model(cfg.New()).Where(filter)
		if cfg.SoftDeleteField != "" {
			q = q.Where(clause.Eq{Column: clause.Column{Name: column(cfg.SoftDeleteField)}, Value: false})
		}
		return q
	}

	userID := func(c *gin.Context) (string, bool) {
		uid := c.GetString("userId")
		if uid == "" {
			resp.Abort(c, resp.CodeUnauthorized, domain.ErrAuthenticationFailure.Error())
			return "", false
		}
		return uid, true
	}

	// Create
	if cfg.AllowCreate {
		cfg.Group.POST(cfg.Path, func(c *gin.Context) {
			m := cfg.New()
			if err := c.ShouldBindJSON(m); err != nil {
				badBody(c, err)
				return
			}
			uid, ok := userID(c)
			if !ok {
				return
			}
			if id, ok := readStringField(m, idFieldNames); !ok {
				resp.Abort(c, resp.CodeServerError, "id field not found")
				return
			} else if strings.TrimSpace(id) == "" {
				_ = writeStringField(m, idFieldNames, cfg.IDGen())
			}
			// 写 Owner
			if !writeStringField(m, ownerFieldNames, uid) {
				resp.Abort(c, resp.CodeServerError, "owner field not found")
				return
			}
			if cfg.SoftDeleteField != "" {
				_ = writeBoolField(m, cfg.SoftDeleteField, false)
			}

			if cfg.Hooks.BeforeCreate != nil {
				if err := cfg.Hooks.BeforeCreate(c, m); err != nil {
					Fail(c, err)
					return
				}
			}
			if err := cfg.DB.WithContext(c).Create(m).Error; err != nil {
				writeErr(c, err)
				return
			}
			if cfg.Hooks.AfterGet != nil {
				cfg.Hooks.AfterGet(c, m)
			}
			c.JSON(http.StatusOK, resp.OK(m))
		})
	}

	// List（我的）
	if cfg.AllowList {
		cfg.Group.GET(cfg.Path, func(c *gin.Context) {
			uid, ok := userID(c)
			if !ok {
				return
			}
			page := domain.Page{
				Offset: atoiDefault(c.Query("offset"), 0),
				Limit:  atoiDefault(c.Query("limit"), 20),
			}.Normalize()

			q := scoped(c, uid, "")
			if cfg.Hooks.ScopeList != nil {
				q = cfg.Hooks.ScopeList(c, q)
			}

			var total int64
			if err := q.Count(&total).Error; err != nil {
				resp.Fail(c, err)
				return
			}

			items := []T{}
			if cfg.OrderBy != "" {
				q = q.Order(cfg.OrderBy)
			} else {
				q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: column(idFieldNames[0])}, Desc: true})
			}
			if err := q.Limit(page.Limit).Offset(page.Offset).Find(&items).Error; err != nil {
				resp.Fail(c, err)
				return
			}
			if cfg.Hooks.AfterGet != nil {
				for i := range items {
					cfg.Hooks.AfterGet(c, &items[i])
				}
			}
			c.JSON(http.StatusOK, resp.OK(resp.Page[T]{
				List: items, Total: total, Offset: page.Offset, Limit: page.Limit,
			}))
		})
	}

	// Get
	if cfg.AllowGet {
		cfg.Group.GET(cfg.Path+"/:id", func(c *gin.Context) {
			uid, ok := userID(c)
			if !ok {
				return
			}
			m := cfg.New()
			if err := scoped(c, uid, c.Param("id")).First(m).Error; err != nil {
				resp.Fail(c, domain.ErrEntityNotFound)
				return
			}
			if cfg.Hooks.AfterGet != nil {
				cfg.Hooks.AfterGet(c, m)
			}
			c.JSON(http.StatusOK, resp.OK(m))
		})
	}

	// Update
	if cfg.AllowUpdate {
		cfg.Group.PUT(cfg.Path+"/:id", func(c *gin.Context) {
			uid, ok := userID(c)
			if !ok {
				return
			}
			id := c.Param("id")

			// 先确认归属
			check := cfg.New()
			if err := scoped(c, uid, id).First(check).Error; err != nil {
				resp.Fail(c, domain.ErrEntityNotFound)
				return
			}

			in := cfg.New()
			if err := c.ShouldBindJSON(in); err != nil {
				badBody(c, err)
				return
			}
			// 强制保持 ID/Owner，删除标记不允许经更新修改（Updates 跳过零值）
			_ = writeStringField(in, idFieldNames, id)
			_ = writeStringField(in, ownerFieldNames, uid)
			if cfg.SoftDeleteField != "" {
				_ = writeBoolField(in, cfg.SoftDeleteField, false)
			}

			if cfg.Hooks.BeforeUpdate != nil {
				if err := cfg.Hooks.BeforeUpdate(c, in); err != nil {
					Fail(c, err)
					return
				}
			}
			if err := scoped(c, uid, id).Updates(in).Error; err != nil {
				writeErr(c, err)
				return
			}
			out := cfg.New()
			if err := scoped(c, uid, id).First(out).Error; err != nil {
				resp.Fail(c, err)
				return
			}
			if cfg.Hooks.AfterGet != nil {
				cfg.Hooks.AfterGet(c, out)
			}
			c.JSON(http.StatusOK, resp.OK(out))
		})
	}

	// Delete
	if cfg.AllowDelete {
		cfg.Group.DELETE(cfg.Path+"/:id", func(c *gin.Context) {
			uid, ok := userID(c)
			if !ok {
				return
			}
			id := c.Param("id")

			var res *gorm.DB
			if cfg.SoftDeleteField != "" {
				res = scoped(c, uid, id).Update(column(cfg.SoftDeleteField), true)
			} else {
				filter := cfg.New()
				_ = writeStringField(filter, idFieldNames, id)
				_ = writeStringField(filter, ownerFieldNames, uid)
				res = cfg.DB.WithContext(c).Where(filter).Delete(cfg.New())
			}
			if res.Error != nil {
				resp.Fail(c, res.Error)
				return
			}
			if res.RowsAffected == 0 {
				resp.Fail(c, domain.ErrEntityNotFound)
				return
			}
			c.JSON(http.StatusOK, resp.OK(gin.H{"id": id}))
		})
	}
}
