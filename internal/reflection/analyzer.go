package reflection

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"sync"
)

// Injectable is embedded in a struct to mark its tagged fields for property injection.
type Injectable struct{}

var (
	injectableType = reflect.TypeOf((*Injectable)(nil)).Elem()
	errType        = reflect.TypeOf((*error)(nil)).Elem()
)

// Analyzer performs reflection-based analysis of functions and struct types.
// It caches analysis results for performance.
type Analyzer struct {
	mu     sync.RWMutex
	funcs  map[uintptr]*FuncInfo
	fields map[reflect.Type]*StructInfo
}

// FuncInfo contains analyzed information about a function value.
type FuncInfo struct {
	Type           reflect.Type
	Value          reflect.Value
	Name           string // Fully-qualified function name, empty for method values
	Params         []ParamInfo
	Returns        []reflect.Type
	HasErrorReturn bool // Returns error as last value
	Variadic       bool
}

// ParamInfo describes a single function parameter.
type ParamInfo struct {
	Type      reflect.Type
	TypeName  string
	Index     int
	ClassLike bool
	CanBeNil  bool
}

// StructInfo describes the injectable fields of a struct type.
type StructInfo struct {
	Type       reflect.Type
	Injectable bool // Has Injectable embedded
	Fields     []FieldInfo
}

// FieldInfo describes an exported field carrying an inject tag.
type FieldInfo struct {
	Name  string
	Index int
	Type  reflect.Type
	Tag   TagInfo
}

// TagInfo contains parsed struct tag information.
type TagInfo struct {
	Inject       bool
	ID           string
	Optional     bool
	Prefer       bool
	Default      bool
	Nullable     bool
	Ignore       bool
	Alternatives []string
}

// New creates a new Analyzer.
func New() *Analyzer {
	return &Analyzer{
		funcs:  make(map[uintptr]*FuncInfo),
		fields: make(map[reflect.Type]*StructInfo),
	}
}

// Analyze analyzes a function and caches the result by function pointer.
func (a *Analyzer) Analyze(fn any) (*FuncInfo, error) {
	if fn == nil {
		return nil, fmt.Errorf("function cannot be nil")
	}

	val := reflect.ValueOf(fn)
	if val.Kind() != reflect.Func {
		return nil, fmt.Errorf("expected a function, got %v", val.Kind())
	}
	if val.IsNil() {
		return nil, fmt.Errorf("function cannot be nil")
	}

	key := val.Pointer()

	a.mu.RLock()
	cached, ok := a.funcs[key]
	a.mu.RUnlock()
	if ok && cached.Type == val.Type() {
		// Closures of one literal share a code pointer; bind the caller's value.
		info := *cached
		info.Value = val
		return &info, nil
	}

	info := AnalyzeValue(val)
	if f := runtime.FuncForPC(key); f != nil {
		info.Name = f.Name()
	}

	a.mu.Lock()
	a.funcs[key] = info
	a.mu.Unlock()

	return info, nil
}

// AnalyzeValue analyzes a function value without caching. Bound method values
// share a single code pointer, so they cannot be cached by pointer.
func AnalyzeValue(val reflect.Value) *FuncInfo {
	typ := val.Type()
	info := &FuncInfo{
		Type:     typ,
		Value:    val,
		Variadic: typ.IsVariadic(),
		Params:   make([]ParamInfo, typ.NumIn()),
		Returns:  make([]reflect.Type, typ.NumOut()),
	}

	for i := 0; i < typ.NumIn(); i++ {
		paramType := typ.In(i)
		info.Params[i] = ParamInfo{
			Type:      paramType,
			TypeName:  TypeName(paramType),
			Index:     i,
			ClassLike: IsClassLike(paramType),
			CanBeNil:  CanBeNil(paramType),
		}
	}

	for i := 0; i < typ.NumOut(); i++ {
		info.Returns[i] = typ.Out(i)
	}
	if n := typ.NumOut(); n > 0 && typ.Out(n-1) == errType {
		info.HasErrorReturn = true
	}

	return info
}

// Struct analyzes the inject-tagged fields of a struct (or pointer to struct) type.
func (a *Analyzer) Struct(t reflect.Type) (*StructInfo, error) {
	structType := t
	if structType.Kind() == reflect.Pointer {
		structType = structType.Elem()
	}
	if structType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("expected a struct, got %v", structType.Kind())
	}

	a.mu.RLock()
	if cached, ok := a.fields[structType]; ok {
		a.mu.RUnlock()
		return cached, nil
	}
	a.mu.RUnlock()

	info := &StructInfo{Type: structType}
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)

		if field.Anonymous && field.Type == injectableType {
			info.Injectable = true
			continue
		}

		// Skip unexported fields
		if !field.IsExported() {
			continue
		}

		tag := ParseFieldTags(field.Tag)
		if !tag.Inject || tag.Ignore {
			continue
		}

		info.Fields = append(info.Fields, FieldInfo{
			Name:  field.Name,
			Index: i,
			Type:  field.Type,
			Tag:   tag,
		})
	}

	a.mu.Lock()
	a.fields[structType] = info
	a.mu.Unlock()

	return info, nil
}

// ParseFieldTags parses the inject and alt struct tags.
//
//	Service *Service `inject:"app.service,optional,prefer"`
//	Store   Store    `inject:",nullable" alt:"*app.RedisStore|*app.MemoryStore"`
func ParseFieldTags(tag reflect.StructTag) TagInfo {
	info := TagInfo{}

	val, ok := tag.Lookup("inject")
	if !ok {
		return info
	}
	if val == "-" {
		info.Ignore = true
		return info
	}
	info.Inject = true

	parts := strings.Split(val, ",")
	info.ID = strings.TrimSpace(parts[0])
	for _, opt := range parts[1:] {
		switch strings.TrimSpace(opt) {
		case "optional":
			info.Optional = true
		case "prefer":
			info.Prefer = true
		case "default":
			info.Default = true
		case "nullable":
			info.Nullable = true
		}
	}

	if alt, ok := tag.Lookup("alt"); ok {
		for _, name := range strings.Split(alt, "|") {
			if name = strings.TrimSpace(name); name != "" {
				info.Alternatives = append(info.Alternatives, name)
			}
		}
	}

	return info
}

// Clear clears the analysis cache.
func (a *Analyzer) Clear() {
	a.mu.Lock()
	a.funcs = make(map[uintptr]*FuncInfo)
	a.fields = make(map[reflect.Type]*StructInfo)
	a.mu.Unlock()
}

// CacheSize returns the number of cached analyses.
func (a *Analyzer) CacheSize() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.funcs) + len(a.fields)
}

// ShortFuncName trims the package path from a runtime function name.
func ShortFuncName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
