package tenantscope

import (
	"reflect"
	"sort"
	"strings"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// Plugin rewrites statements on Scoped models. Install it once on the
// process wide handle with db.Use(&tenantscope.Plugin{}).
type Plugin struct {
	scoped sync.Map // reflect.Type -> bool
}

func (p *Plugin) Name() string {
	return "tenantscope"
}

func (p *Plugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Query().Before("gorm:query").Register("tenantscope:query", p.filter); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("tenantscope:row", p.filter); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("tenantscope:update", p.update); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("tenantscope:delete", p.delete); err != nil {
		return err
	}
	return cb.Create().Before("gorm:create").Register("tenantscope:create", p.stamp)
}

// target returns the statement tenant when the statement's model is scoped.
func (p *Plugin) target(db *gorm.DB) (string, *schema.Field, bool) {
	if db.Error != nil || db.Statement.Schema == nil {
		return "", nil, false
	}
	tenantID, ok := TenantFrom(db.Statement.Context)
	if !ok || !p.isScoped(db.Statement.Schema) {
		return "", nil, false
	}
	field := db.Statement.Schema.LookUpField(Column)
	if field == nil {
		return "", nil, false
	}
	return tenantID, field, true
}

func (p *Plugin) isScoped(s *schema.Schema) bool {
	if v, ok := p.scoped.Load(s.ModelType); ok {
		return v.(bool)
	}
	_, scoped := reflect.New(s.ModelType).Interface().(Scoped)
	p.scoped.Store(s.ModelType, scoped)
	return scoped
}

// confine pins the statement to tenantID. Structured tenant_id conditions the
// caller ANDed in (map or struct Where, clause.Eq or clause.IN) are dropped so
// the pinned value wins; raw SQL fragments and OR/NOT branches cannot be
// rewritten safely and are only ANDed with the pin. Existing conditions are
// grouped first so a caller's OR cannot escape the predicate.
func confine(stmt *gorm.Statement, tenantID string) {
	pred := clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: Column}, Value: tenantID}
	if c, ok := stmt.Clauses["WHERE"]; ok {
		if w, ok := c.Expression.(clause.Where); ok {
			exprs := dropTenantConds(stmt, w.Exprs)
			if len(exprs) > 0 {
				c.Expression = clause.Where{Exprs: []clause.Expression{clause.And(exprs...), pred}}
			} else {
				c.Expression = clause.Where{Exprs: []clause.Expression{pred}}
			}
			stmt.Clauses["WHERE"] = c
			return
		}
	}
	stmt.AddClause(clause.Where{Exprs: []clause.Expression{pred}})
}

// dropTenantConds removes tenant_id equality and IN conditions from a list of
// conjuncts, descending into nested AND groups.
func dropTenantConds(stmt *gorm.Statement, exprs []clause.Expression) []clause.Expression {
	kept := make([]clause.Expression, 0, len(exprs))
	for _, e := range exprs {
		switch v := e.(type) {
		case clause.Eq:
			if isTenantColumn(stmt, v.Column) {
				continue
			}
		case clause.IN:
			if isTenantColumn(stmt, v.Column) {
				continue
			}
		case clause.AndConditions:
			inner := dropTenantConds(stmt, v.Exprs)
			if len(inner) == 0 {
				continue
			}
			e = clause.AndConditions{Exprs: inner}
		}
		kept = append(kept, e)
	}
	return kept
}

func isTenantColumn(stmt *gorm.Statement, column interface{}) bool {
	var table, name string
	switch c := column.(type) {
	case clause.Column:
		if c.Raw {
			return false
		}
		table, name = c.Table, c.Name
	case string:
		name = c
		if i := strings.LastIndexByte(c, '.'); i >= 0 {
			table, name = c[:i], c[i+1:]
		}
		table, name = strings.Trim(table, `"`), strings.Trim(name, `"`)
	default:
		return false
	}
	if name != Column {
		return false
	}
	return table == "" || table == clause.CurrentTable || (stmt.Schema != nil && table == stmt.Schema.Table) || table == stmt.Table
}

// tenantValue matches the value to the column's Go type. Pointer columns get
// a fresh pointer so the caller's variable is never written through.
func tenantValue(field *schema.Field, tenantID string) interface{} {
	if field.FieldType.Kind() == reflect.Ptr {
		v := tenantID
		return &v
	}
	return tenantID
}

func (p *Plugin) filter(db *gorm.DB) {
	tenantID, _, ok := p.target(db)
	if !ok {
		return
	}
	confine(db.Statement, tenantID)
}

func (p *Plugin) update(db *gorm.DB) {
	tenantID, field, ok := p.target(db)
	if !ok {
		return
	}
	// Rows must not move to another tenant.
	switch db.Statement.Dest.(type) {
	case map[string]interface{}:
		db.Statement.SetColumn(Column, tenantID)
	default:
		if indirectKind(db.Statement.Dest) == reflect.Struct {
			db.Statement.SetColumn(Column, tenantValue(field, tenantID))
		}
	}
	if p.unconditional(db) {
		return
	}
	confine(db.Statement, tenantID)
}

func (p *Plugin) delete(db *gorm.DB) {
	tenantID, _, ok := p.target(db)
	if !ok || p.unconditional(db) {
		return
	}
	confine(db.Statement, tenantID)
}

// unconditional reports a statement gorm would refuse as a global update or
// delete. Adding the tenant predicate would turn it into a tenant wide one, so
// it is left alone for gorm to reject with ErrMissingWhereClause.
func (p *Plugin) unconditional(db *gorm.DB) bool {
	if db.AllowGlobalUpdate {
		return false
	}
	if _, ok := db.Statement.Clauses["WHERE"]; ok {
		return false
	}
	return !hasPrimaryKey(db.Statement)
}

func hasPrimaryKey(stmt *gorm.Statement) bool {
	if stmt.Schema == nil || len(stmt.Schema.PrimaryFields) == 0 {
		return false
	}
	rv := stmt.ReflectValue
	switch rv.Kind() {
	case reflect.Struct:
		return primaryKeySet(stmt, rv)
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if primaryKeySet(stmt, reflect.Indirect(rv.Index(i))) {
				return true
			}
		}
	}
	return false
}

func primaryKeySet(stmt *gorm.Statement, rv reflect.Value) bool {
	if rv.Kind() != reflect.Struct {
		return false
	}
	for _, f := range stmt.Schema.PrimaryFields {
		if _, zero := f.ValueOf(stmt.Context, rv); !zero {
			return true
		}
	}
	return false
}

func (p *Plugin) stamp(db *gorm.DB) {
	tenantID, field, ok := p.target(db)
	if !ok {
		return
	}

	switch dest := db.Statement.Dest.(type) {
	case map[string]interface{}:
		dest[Column] = tenantID
		return
	case *map[string]interface{}:
		(*dest)[Column] = tenantID
		return
	case []map[string]interface{}:
		for _, m := range dest {
			m[Column] = tenantID
		}
		return
	case *[]map[string]interface{}:
		for _, m := range *dest {
			m[Column] = tenantID
		}
		return
	}

	rv := db.Statement.ReflectValue
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			db.AddError(field.Set(db.Statement.Context, reflect.Indirect(rv.Index(i)), tenantValue(field, tenantID)))
		}
	case reflect.Struct:
		db.AddError(field.Set(db.Statement.Context, rv, tenantValue(field, tenantID)))
	}
}

func indirectKind(v interface{}) reflect.Kind {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return reflect.Invalid
	}
	return t.Kind()
}

// IsScoped reports whether model is tenant owned.
func IsScoped(model interface{}) bool {
	if _, ok := model.(Scoped); ok {
		return true
	}
	t := reflect.TypeOf(model)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return false
	}
	_, ok := reflect.New(t).Interface().(Scoped)
	return ok
}

// ScopedTables returns the sorted table names of the scoped models among
// models, as db names them.
func ScopedTables(db *gorm.DB, models ...interface{}) ([]string, error) {
	var tables []string
	for _, m := range models {
		if !IsScoped(m) {
			continue
		}
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return nil, err
		}
		tables = append(tables, stmt.Schema.Table)
	}
	sort.Strings(tables)
	return tables, nil
}
